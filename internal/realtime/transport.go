package realtime

import "strings"

// MessageHandler receives one raw message from a transport.
type MessageHandler func(topic string, payload []byte)

// Release ends a subscription. It must be safe to call more than once.
type Release func() error

// Transport is the capability a View needs from a pub/sub binding:
// subscribe to a topic filter and receive (topic, payload) pairs.
//
// Implementations must deliver messages for one subscription sequentially,
// in the order the broker delivered them.
type Transport interface {
	Subscribe(filter string, handler MessageHandler) (Release, error)
}

// FilterFor returns the subscription filter covering every device topic
// in namespace.
//
// Example: FilterFor("purdue-dac") = "purdue-dac/#"
func FilterFor(namespace string) string {
	return strings.TrimSuffix(namespace, "/") + "/#"
}
