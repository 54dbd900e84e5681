package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/dht-realtime/internal/api"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
	"github.com/nerrad567/dht-realtime/internal/infrastructure/logging"
	"github.com/nerrad567/dht-realtime/internal/metrics"
	"github.com/nerrad567/dht-realtime/internal/realtime"
	"github.com/nerrad567/dht-realtime/internal/telemetry"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func quietLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("DHTREALTIME_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingSecret verifies validation errors stop startup.
func TestRun_MissingSecret(t *testing.T) {
	path := writeTestConfig(t, `
telemetry:
  namespace: purdue-dac
logging:
  level: error
`)
	t.Setenv("DHTREALTIME_CONFIG", path)
	t.Setenv("DHTREALTIME_JWT_SECRET", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without a JWT secret")
	}
}

// TestRun_KafkaStartupAndShutdown starts the service on the Kafka transport,
// which connects lazily, and verifies a clean shutdown on cancellation.
func TestRun_KafkaStartupAndShutdown(t *testing.T) {
	path := writeTestConfig(t, fmt.Sprintf(`
telemetry:
  namespace: purdue-dac
  transport: kafka
  seed_device: s1
kafka:
  brokers: ["127.0.0.1:1"]
  topic: dht-telemetry
  group_id: dhtrealtime-test
  poll_timeout: 1
api:
  host: "127.0.0.1"
  port: %d
logging:
  level: error
  format: text
security:
  jwt:
    secret: %q
`, freePort(t), testJWTSecret))
	t.Setenv("DHTREALTIME_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestRun_MQTTBrokerUnavailable verifies startup fails when the broker
// cannot be reached.
func TestRun_MQTTBrokerUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the MQTT connect timeout")
	}
	path := writeTestConfig(t, fmt.Sprintf(`
telemetry:
  namespace: purdue-dac
  transport: mqtt
mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    client_id: "test-client"
  reconnect:
    initial_delay: 1
    max_delay: 5
api:
  host: "127.0.0.1"
  port: %d
logging:
  level: error
security:
  jwt:
    secret: %q
`, freePort(t), testJWTSecret))
	t.Setenv("DHTREALTIME_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Error("run() should fail without a reachable broker")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("DHTREALTIME_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("DHTREALTIME_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestRejectionReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: bad", telemetry.ErrMalformedTopic), "malformed_topic"},
		{fmt.Errorf("%w: bad", telemetry.ErrMalformedPayload), "malformed_payload"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := rejectionReason(tt.err); got != tt.want {
			t.Errorf("rejectionReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWireHooks(t *testing.T) {
	view := realtime.New(realtime.Options{Namespace: "purdue-dac"})
	hub := api.NewHub(config.WebSocketConfig{}, quietLogger())
	wireHooks(view, hub, quietLogger())

	added := testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues(metrics.OutcomeAdded))
	updated := testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues(metrics.OutcomeUpdated))
	rejected := testutil.ToFloat64(metrics.RejectionsTotal.WithLabelValues("malformed_payload"))
	changes := testutil.ToFloat64(metrics.SelectionChangesTotal)

	view.Select("s1")
	view.Handle("purdue-dac/s1", []byte("70:40:1700000000"))
	view.Handle("purdue-dac/s1", []byte("71:41:1700000001"))
	view.Handle("purdue-dac/s1", []byte("hot:humid:now"))

	if got := testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues(metrics.OutcomeAdded)) - added; got != 1 {
		t.Errorf("added delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.MessagesTotal.WithLabelValues(metrics.OutcomeUpdated)) - updated; got != 1 {
		t.Errorf("updated delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.RejectionsTotal.WithLabelValues("malformed_payload")) - rejected; got != 1 {
		t.Errorf("rejected delta = %v, want 1", got)
	}
	// Select, then two snapshot refreshes.
	if got := testutil.ToFloat64(metrics.SelectionChangesTotal) - changes; got != 3 {
		t.Errorf("selection changes delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.DevicesTracked); got != 1 {
		t.Errorf("devices tracked = %v, want 1", got)
	}
}

func TestStartTransport_Unknown(t *testing.T) {
	cfg := &config.Config{Telemetry: config.TelemetryConfig{Transport: "amqp"}}

	if _, err := startTransport(context.Background(), cfg, quietLogger()); err == nil {
		t.Error("startTransport() should reject an unknown transport")
	}
}

func TestStartTransport_Kafka(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{
		Telemetry: config.TelemetryConfig{Transport: config.TransportKafka},
		Kafka: config.KafkaConfig{
			Brokers:     []string{"127.0.0.1:1"},
			Topic:       "dht-telemetry",
			GroupID:     "test",
			PollTimeout: 1,
		},
	}

	tr, err := startTransport(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("startTransport() error = %v", err)
	}

	release, err := tr.Subscribe("purdue-dac/#", func(string, []byte) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := release(); err != nil {
		t.Errorf("release() error = %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := tr.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() after Close should fail")
	}
}

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
