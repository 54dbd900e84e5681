// Package kafka carries DHT telemetry over Kafka as an alternative to the
// MQTT broker.
//
// Records use the telemetry topic (<namespace>/<device-id>) as key and the
// compact temperature:humidity:timestamp payload as value. The Consumer
// routes records to handlers with the same MQTT-style filters the broker
// transport uses, so the realtime view subscribes identically to both.
//
// # Usage
//
//	consumer, err := kafka.NewConsumer(cfg.Kafka)
//	if err != nil {
//	    return err
//	}
//	defer consumer.Close()
//
//	release, err := consumer.Subscribe("purdue-dac/#", view.Handle)
//	go consumer.Run(ctx)
package kafka
