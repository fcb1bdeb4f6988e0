// Package config handles loading and validating the codec service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with PLCCODEC_* environment variables
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
// set via environment variables rather than committed to the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/plccodec.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	order := cfg.ByteOrder()
package config
