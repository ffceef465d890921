package service

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidRequest               = errors.New("invalid request")
	ErrEventNotFound                = errors.New("event not found")
	ErrTicketTypeNotFound           = errors.New("ticket type not found")
	ErrRegistrationNotFound         = errors.New("registration not found")
	ErrInsufficientCapacity         = errors.New("insufficient capacity")
	ErrRegistrationAlreadyCancelled = errors.New("registration already cancelled")
)

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}
