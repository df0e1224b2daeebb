package workflow

import "context"

// BaseStep provides no-op defaults for step handlers. Concrete steps embed
// it and override what they need.
type BaseStep struct {
	StepID StepID
}

func (s *BaseStep) ID() StepID {
	return s.StepID
}

func (s *BaseStep) Enter(ctx context.Context, m Messenger, state *UserState) StepResult {
	return StepResult{}
}

func (s *BaseStep) HandleMessage(ctx context.Context, m Messenger, ev Event, state *UserState) StepResult {
	return StepResult{}
}

func (s *BaseStep) HandleCallback(ctx context.Context, m Messenger, ev Event, state *UserState, data *CallbackData) StepResult {
	return StepResult{}
}
