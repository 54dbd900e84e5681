package kafka

import (
	"fmt"
	"strings"
)

// ValidateFilter checks an MQTT-style filter: non-empty, with '#' only as
// the whole last level and '+' only as a whole level.
func ValidateFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("%w: empty", ErrInvalidFilter)
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("%w: %q ('#' must be the last level)", ErrInvalidFilter, filter)
		}
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: %q ('+' must be a whole level)", ErrInvalidFilter, filter)
		}
	}
	return nil
}

// MatchFilter reports whether topic matches an MQTT-style filter, so Kafka
// records keyed by telemetry topic route the same way broker subscriptions
// would. '+' matches one level, a trailing '#' matches zero or more.
func MatchFilter(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")

	for i, level := range f {
		if level == "#" {
			// "ns/#" also matches the parent "ns" itself.
			return true
		}
		if i >= len(t) {
			return false
		}
		if level != "+" && level != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}
