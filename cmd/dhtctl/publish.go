package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/kafka"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/logging"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/mqtt"
	"github.com/nerrad567/dht-realtime/internal/telemetry"
)

// publisher sends one telemetry payload.
type publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

// runPublish emits simulated readings until ctx is cancelled or -count
// rounds have been sent.
func runPublish(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", defaultConfig(), "Path to the service configuration file")
	devices := fs.Int("devices", 3, "Number of simulated devices")
	interval := fs.Duration("interval", 2*time.Second, "Delay between rounds")
	count := fs.Int("count", 0, "Rounds to publish (0 = until interrupted)")
	seed := fs.Uint64("seed", 1, "Random seed for the simulated values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *devices < 1 {
		return fmt.Errorf("devices must be at least 1, got %d", *devices)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging, "dhtctl")

	pub, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("connecting %s publisher: %w", cfg.Telemetry.Transport, err)
	}
	defer func() {
		if closeErr := pub.Close(); closeErr != nil {
			log.Error("error closing publisher", "error", closeErr)
		}
	}()

	sim := newSimulator(*devices, *seed)
	sent, err := publishLoop(ctx, pub, cfg.Telemetry.Namespace, sim, *interval, *count)
	fmt.Fprintf(stdout, "published %d readings to %s/#\n", sent, cfg.Telemetry.Namespace)
	return err
}

// newPublisher connects the transport named in the config.
func newPublisher(cfg *config.Config) (publisher, error) {
	switch cfg.Telemetry.Transport {
	case config.TransportMQTT:
		mqttCfg := cfg.MQTT
		mqttCfg.Broker.ClientID += "-publisher"
		client, err := mqtt.Connect(mqttCfg)
		if err != nil {
			return nil, err
		}
		return &mqttPublisher{client: client}, nil
	case config.TransportKafka:
		pub, err := kafka.NewPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Telemetry.Transport)
	}
}

// mqttPublisher adapts the MQTT client to publisher.
type mqttPublisher struct {
	client *mqtt.Client
}

func (p *mqttPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	return p.client.Publish(topic, payload, p.client.QoS(), false)
}

func (p *mqttPublisher) Close() error {
	return p.client.Close()
}

// publishLoop sends one reading per simulated device each round.
// It returns the number of readings sent.
func publishLoop(ctx context.Context, pub publisher, namespace string, sim *simulator, interval time.Duration, count int) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := 0
	for round := 1; ; round++ {
		for _, r := range sim.next(time.Now()) {
			if err := pub.Publish(ctx, telemetry.Topic(namespace, r.DeviceID), []byte(telemetry.Encode(r))); err != nil {
				return sent, fmt.Errorf("publishing %s: %w", r.DeviceID, err)
			}
			sent++
		}
		if count > 0 && round >= count {
			return sent, nil
		}

		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
}

// simulator produces a bounded random walk per device.
type simulator struct {
	rng     *rand.Rand
	devices []simDevice
}

type simDevice struct {
	id          string
	temperature float64
	humidity    float64
}

func newSimulator(n int, seed uint64) *simulator {
	s := &simulator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	for i := range n {
		s.devices = append(s.devices, simDevice{
			id:          fmt.Sprintf("sensor-%d", i+1),
			temperature: 68 + s.rng.Float64()*6,
			humidity:    35 + s.rng.Float64()*15,
		})
	}
	return s
}

// next advances every device one step and returns their readings stamped
// with now.
func (s *simulator) next(now time.Time) []telemetry.Reading {
	ts := float64(now.UnixMilli()) / 1000
	out := make([]telemetry.Reading, 0, len(s.devices))
	for i := range s.devices {
		d := &s.devices[i]
		d.temperature = round1(d.temperature + (s.rng.Float64()-0.5)*0.6)
		d.humidity = round1(clamp(d.humidity+(s.rng.Float64()-0.5)*1.0, 0, 100))
		out = append(out, telemetry.Reading{
			DeviceID:    d.id,
			Temperature: d.temperature,
			Humidity:    d.humidity,
			Timestamp:   ts,
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
