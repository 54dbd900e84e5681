// Package telemetry implements the decode, de-duplicate and select pipeline
// for DHT sensor telemetry.
//
// Devices publish one compact text message per reading:
//
//	topic:   <namespace>/<device-id>      e.g. purdue-dac/lab-204
//	payload: <temperature>:<humidity>:<timestamp>   e.g. 70.2:45.0:1700000000
//
// # Key Types
//
//   - Reading: an immutable decoded sensor reading
//   - Decoder: turns (topic, payload) into a Reading or a rejection error
//   - Store: the latest Reading per device, kept in first-seen order
//   - Selection: the focused device and the snapshot shown for it
//
// # Usage
//
//	dec := telemetry.NewDecoder("purdue-dac")
//	store := telemetry.NewStore()
//	var sel telemetry.Selection
//	sel = sel.Select("lab-204", store)
//
//	r, err := dec.Decode(topic, payload)
//	if err != nil {
//	    return // ErrMalformedTopic or ErrMalformedPayload, state untouched
//	}
//	store.Apply(r)
//	sel = sel.Observe(r)
//
// # Thread Safety
//
// Decoder and Selection are values with no shared state and are safe to use
// concurrently. Store is not synchronised; the owning view (see package
// realtime) serialises access to it.
package telemetry
