package realtime

import "errors"

var (
	// ErrAlreadyOpen is returned when Open is called on a view that is
	// already subscribed.
	ErrAlreadyOpen = errors.New("realtime: view already open")

	// ErrClosed is returned when Open is called on a closed view.
	ErrClosed = errors.New("realtime: view closed")

	// ErrNilTransport is returned when Open is called without a transport.
	ErrNilTransport = errors.New("realtime: transport is nil")
)
