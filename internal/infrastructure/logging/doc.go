// Package logging provides structured logging for the DHT Realtime service.
//
// It wraps log/slog so every component logs with the same handler, level
// and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("subscribed", "filter", "purdue-dac/#")
//
//	viewLog := logger.With("component", "realtime")
//	viewLog.Warn("rejected message", "topic", topic, "error", err)
//
// Never log secrets. JWTs and broker passwords stay out of log attributes.
package logging
