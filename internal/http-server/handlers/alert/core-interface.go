package alert

import "context"

// Core resolves alert recipients.
type Core interface {
	Subscribers(ctx context.Context, category string) ([]int64, error)
	ChatsByAddress(ctx context.Context, address string) ([]int64, error)
}

// Notifier delivers alert text to a chat.
type Notifier interface {
	SendText(chatID int64, text string) (int64, error)
}
