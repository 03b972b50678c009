package service

import "errors"

var (
	// ErrInvalidInput is returned for malformed recipients or definitions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveAlert is returned when a command needs an alert the recipient does not have.
	ErrNoActiveAlert = errors.New("no active alert")
	// ErrRendererFailure wraps chart generation failures and timeouts.
	ErrRendererFailure = errors.New("renderer failure")
	// ErrTransportFailure wraps failed deliveries to the messaging channel.
	ErrTransportFailure = errors.New("transport failure")
)
