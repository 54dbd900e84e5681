package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefixSystem is the base for the service's own status topics. It sits
// outside every telemetry namespace so status traffic is never decoded as a
// reading.
const TopicPrefixSystem = "dhtrealtime/system"

// Topics builds topic names for one telemetry namespace.
//
//	topics := mqtt.Topics{Namespace: "purdue-dac"}
//	topics.Device("greenhouse-3") // "purdue-dac/greenhouse-3"
//	topics.AllDevices()           // "purdue-dac/#"
type Topics struct {
	Namespace string
}

func (t Topics) prefix() string {
	return strings.TrimSuffix(t.Namespace, "/")
}

// Device returns the telemetry topic a device publishes on.
func (t Topics) Device(deviceID string) string {
	return fmt.Sprintf("%s/%s", t.prefix(), deviceID)
}

// AllDevices returns the filter matching every device in the namespace.
//
// Pattern: <namespace>/#
func (t Topics) AllDevices() string {
	return t.prefix() + "/#"
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: dhtrealtime/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
