// Package config handles loading and validating the MQTT light bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Light.Name)
package config
