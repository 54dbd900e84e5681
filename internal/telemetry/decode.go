package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// topicSeparator splits the namespace from the device identifier.
	topicSeparator = "/"

	// fieldSeparator splits the payload fields.
	fieldSeparator = ":"

	// payloadFields is the exact number of fields in a payload:
	// temperature, humidity, timestamp.
	payloadFields = 3

	// payloadTerminators may end a payload; devices commonly send a line
	// ending after the last field.
	payloadTerminators = "\r\n"
)

// Decoder decodes telemetry messages published under a fixed namespace.
//
// The zero value is not useful; create one with NewDecoder.
type Decoder struct {
	prefix string
}

// NewDecoder returns a Decoder for topics of the form <namespace>/<device-id>.
func NewDecoder(namespace string) Decoder {
	return Decoder{prefix: strings.TrimSuffix(namespace, topicSeparator) + topicSeparator}
}

// Namespace returns the namespace the decoder accepts.
func (d Decoder) Namespace() string {
	return strings.TrimSuffix(d.prefix, topicSeparator)
}

// Decode parses a raw topic and payload into a Reading.
//
// The device identifier is everything after the namespace prefix and may
// itself contain '/'. A trailing line ending is dropped; otherwise fields must
// be bare numbers. Values are passed through verbatim; no unit conversion or
// range checks are applied.
//
// Returns:
//   - Reading: the decoded reading
//   - error: ErrMalformedTopic or ErrMalformedPayload (wrapped with detail)
func (d Decoder) Decode(topic, payload string) (Reading, error) {
	deviceID, ok := strings.CutPrefix(topic, d.prefix)
	if !ok {
		return Reading{}, fmt.Errorf("%w: %q is outside namespace %q", ErrMalformedTopic, topic, d.Namespace())
	}
	if deviceID == "" {
		return Reading{}, fmt.Errorf("%w: %q has no device id", ErrMalformedTopic, topic)
	}

	fields := strings.Split(strings.TrimRight(payload, payloadTerminators), fieldSeparator)
	if len(fields) != payloadFields {
		return Reading{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedPayload, payloadFields, len(fields))
	}

	var values [payloadFields]float64
	for i, field := range fields {
		v, err := parseField(field)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: field %d: %w", ErrMalformedPayload, i+1, err)
		}
		values[i] = v
	}

	return Reading{
		DeviceID:    deviceID,
		Temperature: values[0],
		Humidity:    values[1],
		Timestamp:   values[2],
	}, nil
}

// Decode is a convenience wrapper around NewDecoder(namespace).Decode.
func Decode(namespace, topic, payload string) (Reading, error) {
	return NewDecoder(namespace).Decode(topic, payload)
}

// parseField parses one numeric payload field.
// NaN and infinities are rejected so they never reach a Store.
func parseField(field string) (float64, error) {
	if field == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", field)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", field)
	}
	return v, nil
}

// Topic returns the topic a device publishes its readings on.
//
// Example: Topic("purdue-dac", "lab-204") = "purdue-dac/lab-204"
func Topic(namespace, deviceID string) string {
	return strings.TrimSuffix(namespace, topicSeparator) + topicSeparator + deviceID
}

// Encode renders a Reading in the wire payload format.
//
// The shortest representation that round-trips through Decode is used.
func Encode(r Reading) string {
	return strings.Join([]string{
		strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		strconv.FormatFloat(r.Humidity, 'f', -1, 64),
		strconv.FormatFloat(r.Timestamp, 'f', -1, 64),
	}, fieldSeparator)
}
