// Package logging provides structured logging for the MQTT light bridge.
//
// It wraps log/slog so every component logs through the same handler with
// the same default fields (service, version).
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	bridgeLog := logger.Component("light")
//	bridgeLog.Warn("ignoring malformed payload", "topic", topic)
//
// Never log MQTT passwords or the InfluxDB token.
package logging
