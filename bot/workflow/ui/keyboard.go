package ui

import "SolBuddy/bot/workflow"

// CancelRow creates a single cancel control for intermediate prompts.
func CancelRow(text, data string) [][]workflow.Button {
	return [][]workflow.Button{
		{
			{Text: text, Data: data},
		},
	}
}

// ConfirmCancelRow creates the two mutually exclusive review actions.
func ConfirmCancelRow(confirmText, confirmData, cancelText, cancelData string) [][]workflow.Button {
	return [][]workflow.Button{
		{
			{Text: confirmText, Data: confirmData},
			{Text: cancelText, Data: cancelData},
		},
	}
}

// LinkRow creates a single URL button, used for explorer links on reports.
func LinkRow(text, url string) [][]workflow.Button {
	return [][]workflow.Button{
		{
			{Text: text, URL: url},
		},
	}
}

// Grid builds an inline keyboard from rows of text/data pairs.
func Grid(rows ...[]workflow.Button) [][]workflow.Button {
	return rows
}
