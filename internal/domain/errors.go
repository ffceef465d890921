package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError
type ErrorKind string

const (
	KindArgumentNull            ErrorKind = "argument_null"
	KindInvalidCapacity         ErrorKind = "invalid_capacity"
	KindOverlappingSession      ErrorKind = "overlapping_session"
	KindUnknownSessionReference ErrorKind = "unknown_session_reference"
	KindInvalidPrice            ErrorKind = "invalid_price"
	KindInvalidTimeWindow       ErrorKind = "invalid_time_window"
	KindDuplicateSession        ErrorKind = "duplicate_session"
	KindDuplicateTicketType     ErrorKind = "duplicate_ticket_type"
	KindUnknownTicketType       ErrorKind = "unknown_ticket_type"
	KindInvalidQuantity         ErrorKind = "invalid_quantity"
)

// DomainError is a rejected construction or registration. Message is
// user facing and returned as is by the HTTP layer.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError of the same kind, so errors.Is(err, ErrInvalidCapacity) works
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is
var (
	ErrArgumentNull            = &DomainError{Kind: KindArgumentNull, Message: "required argument is missing"}
	ErrInvalidCapacity         = &DomainError{Kind: KindInvalidCapacity, Message: "invalid capacity"}
	ErrOverlappingSession      = &DomainError{Kind: KindOverlappingSession, Message: "overlapping session"}
	ErrUnknownSessionReference = &DomainError{Kind: KindUnknownSessionReference, Message: "unknown session reference"}
	ErrInvalidPrice            = &DomainError{Kind: KindInvalidPrice, Message: "invalid price"}
	ErrInvalidTimeWindow       = &DomainError{Kind: KindInvalidTimeWindow, Message: "invalid time window"}
	ErrDuplicateSession        = &DomainError{Kind: KindDuplicateSession, Message: "duplicate session"}
	ErrDuplicateTicketType     = &DomainError{Kind: KindDuplicateTicketType, Message: "duplicate ticket type"}
	ErrUnknownTicketType       = &DomainError{Kind: KindUnknownTicketType, Message: "unknown ticket type"}
	ErrInvalidQuantity         = &DomainError{Kind: KindInvalidQuantity, Message: "invalid quantity"}
)

func newError(kind ErrorKind, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func argumentNull(name string) *DomainError {
	return newError(KindArgumentNull, "%s is required", name)
}

// IsDomainError reports whether err wraps a DomainError
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
