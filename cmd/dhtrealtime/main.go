// DHT Realtime - live temperature and humidity telemetry
//
// This is the main entry point for the DHT Realtime service. It subscribes
// to <namespace>/# on the configured pub/sub transport, keeps the latest
// reading per device plus the focused-device selection, and serves both over
// a REST + WebSocket API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/dht-realtime/internal/api"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/kafka"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/logging"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/mqtt"
	"github.com/nerrad567/dht-realtime/internal/metrics"
	"github.com/nerrad567/dht-realtime/internal/realtime"
	"github.com/nerrad567/dht-realtime/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting DHT Realtime",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	transport, err := startTransport(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("starting %s transport: %w", cfg.Telemetry.Transport, err)
	}
	defer func() {
		log.Info("closing transport", "transport", cfg.Telemetry.Transport)
		if closeErr := transport.Close(); closeErr != nil {
			log.Error("error closing transport", "error", closeErr)
		}
	}()

	view := realtime.New(realtime.Options{
		Namespace: cfg.Telemetry.Namespace,
		Seed:      cfg.Telemetry.SeedDevice,
	})

	server, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Security:      cfg.Security,
		Logger:        log,
		View:          view,
		Transport:     transport,
		TransportName: cfg.Telemetry.Transport,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	wireHooks(view, server.Hub(), log)

	if err := view.Open(transport); err != nil {
		return fmt.Errorf("opening realtime view: %w", err)
	}
	// Released before the transport closes so no late delivery reaches the view.
	defer func() {
		log.Info("releasing telemetry subscription")
		if closeErr := view.Close(); closeErr != nil {
			log.Error("error releasing subscription", "error", closeErr)
		}
	}()
	log.Info("realtime view open",
		"filter", realtime.FilterFor(cfg.Telemetry.Namespace),
		"seed_device", cfg.Telemetry.SeedDevice,
	)

	go view.RunReconciler(ctx, cfg.GetReconcileInterval())

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := transport.HealthCheck(ctx); err != nil {
		log.Warn("transport not healthy at startup", "error", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. Realtime view (subscription release)
	// 3. Transport

	log.Info("DHT Realtime stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DHTREALTIME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DHTREALTIME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// wireHooks connects the view's notifications to the WebSocket hub, the
// Prometheus collectors and the log.
func wireHooks(view *realtime.View, hub *api.Hub, log *logging.Logger) {
	view.SetOnUpdate(func(u realtime.Update) {
		metrics.ObserveMessage(u.Added, u.Devices)
		if u.SelectionChanged {
			metrics.SelectionChangesTotal.Inc()
		}
		if u.Added {
			log.Info("new device", "device_id", u.Reading.DeviceID, "devices", u.Devices)
		}
		hub.BroadcastUpdate(u)
	})
	view.SetOnReject(func(topic string, err error) {
		metrics.ObserveRejection(rejectionReason(err))
		log.Debug("telemetry message rejected", "topic", topic, "error", err)
	})
	view.SetOnSelection(func(sel telemetry.Selection) {
		metrics.SelectionChangesTotal.Inc()
		log.Info("selection changed", "device_id", sel.DeviceID, "state", sel.State().String())
		hub.BroadcastSelection(sel)
	})
}

// rejectionReason maps a decode error to a low-cardinality metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, telemetry.ErrMalformedTopic):
		return "malformed_topic"
	case errors.Is(err, telemetry.ErrMalformedPayload):
		return "malformed_payload"
	default:
		return "other"
	}
}

// transport is a started pub/sub binding the view can subscribe through.
type transport interface {
	realtime.Transport
	HealthCheck(ctx context.Context) error
	Close() error
}

// startTransport connects the configured telemetry transport.
//
// Parameters:
//   - ctx: Context bounding the transport's background loop
//   - cfg: Application configuration
//   - log: Logger instance
//
// Returns:
//   - transport: Connected transport
//   - error: If the broker cannot be reached or the transport is unknown
func startTransport(ctx context.Context, cfg *config.Config, log *logging.Logger) (transport, error) {
	switch cfg.Telemetry.Transport {
	case config.TransportMQTT:
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		client.SetLogger(log)
		client.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		client.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		return &mqttTransport{client: client}, nil

	case config.TransportKafka:
		consumer, err := kafka.NewConsumer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		consumer.SetLogger(log)
		go func() {
			if runErr := consumer.Run(ctx); runErr != nil && ctx.Err() == nil {
				log.Error("kafka consumer stopped", "error", runErr)
			}
		}()
		log.Info("Kafka consumer started",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
			"group_id", cfg.Kafka.GroupID,
		)
		return &kafkaTransport{consumer: consumer}, nil

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Telemetry.Transport)
	}
}

// mqttTransport adapts the infrastructure MQTT client to realtime.Transport.
// The MQTT handler returns an error; the view's handler reports rejections
// through its own hook instead.
type mqttTransport struct {
	client *mqtt.Client
}

// Subscribe implements realtime.Transport.
func (a *mqttTransport) Subscribe(filter string, handler realtime.MessageHandler) (realtime.Release, error) {
	err := a.client.Subscribe(filter, a.client.QoS(), func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return func() error {
		return a.client.Unsubscribe(filter)
	}, nil
}

// HealthCheck implements api.HealthChecker.
func (a *mqttTransport) HealthCheck(ctx context.Context) error {
	return a.client.HealthCheck(ctx)
}

// Close disconnects from the broker.
func (a *mqttTransport) Close() error {
	return a.client.Close()
}

// kafkaTransport adapts the Kafka consumer to realtime.Transport.
type kafkaTransport struct {
	consumer *kafka.Consumer
}

// Subscribe implements realtime.Transport.
func (a *kafkaTransport) Subscribe(filter string, handler realtime.MessageHandler) (realtime.Release, error) {
	release, err := a.consumer.Subscribe(filter, kafka.MessageHandler(handler))
	if err != nil {
		return nil, err
	}
	return release, nil
}

// HealthCheck implements api.HealthChecker.
func (a *kafkaTransport) HealthCheck(ctx context.Context) error {
	return a.consumer.HealthCheck(ctx)
}

// Close stops the consumer.
func (a *kafkaTransport) Close() error {
	return a.consumer.Close()
}
