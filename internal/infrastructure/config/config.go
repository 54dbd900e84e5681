package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported telemetry transports.
const (
	TransportMQTT  = "mqtt"
	TransportKafka = "kafka"
)

// Config is the root configuration structure for DHT Realtime.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// TelemetryConfig controls which messages the realtime view consumes.
type TelemetryConfig struct {
	// Namespace is the topic prefix devices publish under: <namespace>/<device-id>.
	Namespace string `yaml:"namespace"`

	// Transport selects the pub/sub binding: "mqtt" or "kafka".
	Transport string `yaml:"transport"`

	// SeedDevice is an optional device to focus when the view starts.
	SeedDevice string `yaml:"seed_device"`

	// ReconcileInterval is how often (seconds) a selection without a
	// snapshot is re-checked against the store. 0 disables the loop.
	ReconcileInterval int `yaml:"reconcile_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// KafkaConfig contains Kafka consumer settings, used when
// telemetry.transport is "kafka". Each record's key carries the telemetry
// topic (<namespace>/<device-id>) and its value the payload.
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupID     string   `yaml:"group_id"`
	PollTimeout int      `yaml:"poll_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DHTREALTIME_SECTION_KEY
// For example: DHTREALTIME_MQTT_HOST, DHTREALTIME_TELEMETRY_NAMESPACE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Telemetry: TelemetryConfig{
			Namespace:         "purdue-dac",
			Transport:         TransportMQTT,
			ReconcileInterval: 2,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "dhtrealtime",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Kafka: KafkaConfig{
			Topic:       "dht-telemetry",
			GroupID:     "dhtrealtime",
			PollTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 1440,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DHTREALTIME_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Telemetry
	if v := os.Getenv("DHTREALTIME_TELEMETRY_NAMESPACE"); v != "" {
		cfg.Telemetry.Namespace = v
	}
	if v := os.Getenv("DHTREALTIME_TELEMETRY_TRANSPORT"); v != "" {
		cfg.Telemetry.Transport = v
	}
	if v := os.Getenv("DHTREALTIME_SEED_DEVICE"); v != "" {
		cfg.Telemetry.SeedDevice = v
	}

	// MQTT
	if v := os.Getenv("DHTREALTIME_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DHTREALTIME_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("DHTREALTIME_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DHTREALTIME_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Kafka
	if v := os.Getenv("DHTREALTIME_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	// API
	if v := os.Getenv("DHTREALTIME_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("DHTREALTIME_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// splitList splits a comma-separated environment value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Telemetry validation
	ns := c.Telemetry.Namespace
	switch {
	case ns == "":
		errs = append(errs, "telemetry.namespace is required")
	case strings.ContainsAny(ns, "+#"):
		errs = append(errs, "telemetry.namespace must not contain MQTT wildcards")
	}
	if c.Telemetry.ReconcileInterval < 0 {
		errs = append(errs, "telemetry.reconcile_interval must not be negative")
	}

	switch c.Telemetry.Transport {
	case TransportMQTT:
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required")
		}
	case TransportKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka.brokers is required when telemetry.transport is kafka")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka.topic is required when telemetry.transport is kafka")
		}
		if c.Kafka.GroupID == "" {
			errs = append(errs, "kafka.group_id is required when telemetry.transport is kafka")
		}
	default:
		errs = append(errs, fmt.Sprintf("telemetry.transport must be %q or %q", TransportMQTT, TransportKafka))
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - JWT secret is REQUIRED.
	// Tokens signed with a short secret can be brute-forced offline.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set DHTREALTIME_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetReconcileInterval returns the selection reconcile interval as a Duration.
func (c *Config) GetReconcileInterval() time.Duration {
	return time.Duration(c.Telemetry.ReconcileInterval) * time.Second
}

// GetKafkaPollTimeout returns the Kafka fetch timeout as a Duration.
func (c *Config) GetKafkaPollTimeout() time.Duration {
	return time.Duration(c.Kafka.PollTimeout) * time.Second
}
