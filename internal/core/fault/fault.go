// Package fault defines the reconciler's error taxonomy. Every failure that
// crosses a component boundary carries a Kind assigned at construction time;
// classification of foreign errors falls back to message matching.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for retry and reporting decisions.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindData       Kind = "data"
	KindSync       Kind = "synchronization"
	KindPermission Kind = "permission"
	KindUnknown    Kind = "unknown"
)

// Fault is an error with a declared kind plus structured context for
// diagnosis. The raw cause is preserved for logs; user-facing text is
// produced separately by UserMessage.
type Fault struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
	// Fields carries structured context (entity ids, attempt counts).
	Fields map[string]any
}

func (f *Fault) Error() string {
	switch {
	case f.Msg != "" && f.Err != nil:
		return fmt.Sprintf("%s: %s: %v", f.Op, f.Msg, f.Err)
	case f.Msg != "":
		return fmt.Sprintf("%s: %s", f.Op, f.Msg)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Op, f.Err)
	default:
		return f.Op
	}
}

func (f *Fault) Unwrap() error { return f.Err }

// New creates a Fault with a declared kind.
func New(kind Kind, op, msg string) *Fault {
	return &Fault{Kind: kind, Op: op, Msg: msg}
}

// Newf creates a Fault with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to an underlying error. A nil err
// yields nil.
func Wrap(kind Kind, op string, err error) *Fault {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Op: op, Err: err}
}

// With adds a structured context field and returns the fault for chaining.
func (f *Fault) With(key string, value any) *Fault {
	if f.Fields == nil {
		f.Fields = make(map[string]any)
	}
	f.Fields[key] = value
	return f
}

// KindOf returns the declared kind of err, or KindUnknown if err carries
// none. It does not attempt message matching; see Classify.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return KindUnknown, false
}
