package gedcom

import (
	"errors"
	"fmt"
)

// Fatal grammar violations. A parse that hits one of these stops and returns
// a *FatalError wrapping the sentinel.
var (
	ErrExpectedLevel     = errors.New("expected level")
	ErrTimeWithoutDate   = errors.New("header TIME without a preceding DATE")
	ErrChangeWithoutDate = errors.New("CHAN without a nested DATE")
)

// FatalError is an unrecoverable grammar violation at a source line.
type FatalError struct {
	Line int
	Err  error
	Msg  string
}

func (e *FatalError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Err, e.Msg)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Diagnostic is an advisory message about a recoverable anomaly. It never
// changes whether a parse succeeds.
type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}
