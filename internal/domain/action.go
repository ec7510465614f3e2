package domain

type ActionKind string

const (
	ActionOpenURL ActionKind = "open_url"
	ActionSetMode ActionKind = "set_mode"
	ActionSetSuit ActionKind = "set_suit"
)

// Action is a UI side effect requested by a local command.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Value string     `json:"value"`
}

// LocalCommandResult is the outcome of running input through the local
// command handler. It is never persisted.
type LocalCommandResult struct {
	Handled  bool
	Response string
	Action   *Action
}
