package pos

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation so callers can react without parsing
// messages. Every failure the engine returns carries exactly one kind.
type Kind string

const (
	KindAlreadyOccupied  Kind = "already_occupied"
	KindOrderClosed      Kind = "order_closed"
	KindEmptyOrder       Kind = "empty_order"
	KindInvalidQuantity  Kind = "invalid_quantity"
	KindUnknownMenuItem  Kind = "unknown_menu_item"
	KindLineItemNotFound Kind = "line_item_not_found"
	KindForbidden        Kind = "forbidden"
	KindBusy             Kind = "busy"
	KindNotFound         Kind = "not_found"
	KindUnavailable      Kind = "unavailable"
)

// Error is a typed, recoverable failure. All engine failures are per-request;
// none should terminate the process.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errf builds a typed failure with a formatted message.
func Errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error, typically a store failure
// surfacing as Unavailable.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
