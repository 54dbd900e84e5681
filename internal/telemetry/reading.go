package telemetry

import (
	"math"
	"time"
)

// Reading is a single decoded sensor reading.
//
// Readings are values: a new message produces a new Reading, an existing one
// is never modified in place.
type Reading struct {
	DeviceID    string  `json:"device_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	// Timestamp is seconds since the Unix epoch as reported by the device.
	Timestamp float64 `json:"timestamp"`
}

// Time converts the device-reported timestamp to a time.Time.
// Fractional seconds are kept at nanosecond precision.
func (r Reading) Time() time.Time {
	sec, frac := math.Modf(r.Timestamp)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
