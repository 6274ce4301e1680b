// Package erruser carries errors whose text is meant for a notice shown to the
// user. The technical cause stays reachable through Unwrap for logs.
package erruser

import "errors"

// Err pairs a notice message with its cause.
type Err struct {
	Msg string
	Err error
}

func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an error whose Error() is msg. A nil cause yields a plain error.
func New(msg string, cause error) error {
	if cause == nil {
		return errors.New(msg)
	}
	return &Err{Msg: msg, Err: cause}
}

// Message returns the notice text for err: the user message when err carries
// one, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ue *Err
	if errors.As(err, &ue) {
		return ue.Msg
	}
	return err.Error()
}
