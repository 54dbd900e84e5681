// Package realtime provides the consuming view that connects a pub/sub
// transport to the telemetry pipeline.
//
// A View owns exactly one telemetry.Store and one telemetry.Selection. It
// subscribes to <namespace>/# on any Transport (MQTT, Kafka, or a test fake).
// Each inbound message is decoded, applied to the store and checked against
// the selection before the next one is processed.
//
// # Lifecycle
//
//	view := realtime.New(realtime.Options{Namespace: "purdue-dac", Seed: "lab-204"})
//	view.SetOnUpdate(func(u realtime.Update) { hub.Broadcast(...) })
//	if err := view.Open(transport); err != nil {
//	    return err
//	}
//	defer view.Close() // releases the subscription
//
// After Close, messages still in flight are dropped and never mutate the
// view's state.
//
// # Thread Safety
//
// All View methods are safe for concurrent use. Message handling and API
// reads are serialised by a single mutex; hooks run after the lock is
// released.
package realtime
