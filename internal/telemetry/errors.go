package telemetry

import "errors"

// Rejection errors returned by the decoder.
//
// A rejected message never updates a Store or Selection. Check with errors.Is:
//
//	if errors.Is(err, telemetry.ErrMalformedPayload) {
//	    // count and drop
//	}
var (
	// ErrMalformedTopic is returned when a topic is outside the telemetry
	// namespace or carries an empty device identifier.
	ErrMalformedTopic = errors.New("telemetry: malformed topic")

	// ErrMalformedPayload is returned when a payload does not have exactly
	// three colon-delimited fields, or when a field is not a finite number.
	ErrMalformedPayload = errors.New("telemetry: malformed payload")
)
