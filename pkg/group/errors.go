package group

import "errors"

// GroupError is the failure taxonomy for pkg/group, per spec.md §4.1.
type GroupError struct {
	// Kind names the failure class.
	Kind string
	// Err is the underlying cause, if any.
	Err error
}

func (e *GroupError) Error() string {
	if e.Err != nil {
		return e.Kind + ": " + e.Err.Error()
	}
	return e.Kind
}

func (e *GroupError) Unwrap() error { return e.Err }

// Sentinel kinds, matched with errors.Is against the Kind-bearing wrapper
// below so callers can do errors.Is(err, group.ErrIdentityPoint) without
// caring about the wrapped cause.
var (
	// ErrIdentityPoint is returned when an operation produces or consumes
	// the identity point where that is disallowed.
	ErrIdentityPoint = errors.New("group: identity point")

	// ErrDecode is returned when point or scalar bytes are malformed.
	ErrDecode = errors.New("group: malformed encoding")
)

func newIdentityError(context string) error {
	return &GroupError{Kind: "IdentityPoint", Err: wrapf(ErrIdentityPoint, context)}
}

func newDecodeError(context string, cause error) error {
	return &GroupError{Kind: "Decode", Err: wrapf(ErrDecode, context, cause)}
}

func wrapf(sentinel error, context string, extra ...error) error {
	if len(extra) > 0 && extra[0] != nil {
		return &wrapped{sentinel: sentinel, context: context, cause: extra[0]}
	}
	return &wrapped{sentinel: sentinel, context: context}
}

type wrapped struct {
	sentinel error
	context  string
	cause    error
}

func (w *wrapped) Error() string {
	if w.cause != nil {
		return w.context + ": " + w.sentinel.Error() + ": " + w.cause.Error()
	}
	return w.context + ": " + w.sentinel.Error()
}

func (w *wrapped) Unwrap() error { return w.sentinel }
