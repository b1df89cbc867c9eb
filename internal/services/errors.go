package services

import (
	"errors"
	"fmt"
)

// Relay errors
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrTransport        = errors.New("transport failure")
	ErrUnauthorized     = errors.New("unauthorized command")
	ErrMissingArgument  = errors.New("missing argument")
)

// DeliveryError represents a failed send to a single channel
type DeliveryError struct {
	ChannelID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.ChannelID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is makes every DeliveryError match ErrTransport
func (e *DeliveryError) Is(target error) bool {
	return target == ErrTransport
}
