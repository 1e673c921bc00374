package domain

import "fmt"

// ErrorKind classifies command-level failures per spec §7.
type ErrorKind string

const (
	// InvalidArgument: side not buy/sell, malformed offset, bad duration.
	// Surfaces to the user; aborts the current command.
	InvalidArgument ErrorKind = "invalid_argument"

	// ZeroSize: computed amount is zero (no balance, or position
	// already closed). Aborts the current command, not the block.
	ZeroSize ErrorKind = "zero_size"

	// AbortSequence: raised by stopIf/continueIf. Terminates the
	// current block cleanly and silently.
	AbortSequence ErrorKind = "abort_sequence"

	// ApiTransient: a single exchange-port call failed.
	ApiTransient ErrorKind = "api_transient"
)

// CommandError is the typed error every command/normalizer step
// returns. NotSupported is deliberately absent here — per spec §7 it
// is never an error, just a substituted no-op.
type CommandError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Is reports whether err is a CommandError of the given kind.
func Is(err error, kind ErrorKind) bool {
	ce, ok := err.(*CommandError)
	return ok && ce.Kind == kind
}

func NewInvalidArgument(msg string) error {
	return &CommandError{Kind: InvalidArgument, Msg: msg}
}

func NewZeroSize(msg string) error {
	return &CommandError{Kind: ZeroSize, Msg: msg}
}

func NewAbortSequence(msg string) error {
	return &CommandError{Kind: AbortSequence, Msg: msg}
}

func NewAPITransient(msg string, err error) error {
	return &CommandError{Kind: ApiTransient, Msg: msg, Err: err}
}
