// Package mqtt provides the MQTT client used to receive and publish DHT
// telemetry.
//
// It manages:
//   - Connection to the broker with auto-reconnect and exponential backoff
//   - Subscriptions with wildcard filters, restored after every reconnect
//   - Publishing with QoS and payload size checks
//   - A retained online/offline status on dhtrealtime/system/status, with
//     the offline status registered as Last Will and Testament
//
// Devices publish each reading on <namespace>/<device-id> with the compact
// payload temperature:humidity:timestamp. The service subscribes to
// <namespace>/# and hands every message to the realtime view.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Namespace: cfg.Telemetry.Namespace}
//	err = client.Subscribe(topics.AllDevices(), client.QoS(),
//	    func(topic string, payload []byte) error {
//	        view.Handle(topic, payload)
//	        return nil
//	    })
//
// # Security
//
// Use TLS (broker.tls: true) outside local development. Credentials come
// from DHTREALTIME_MQTT_USERNAME and DHTREALTIME_MQTT_PASSWORD.
package mqtt
