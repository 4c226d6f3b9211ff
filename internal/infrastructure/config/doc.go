// Package config loads and validates Gray Logic Panel configuration.
//
// Configuration is read from a YAML file with three layers of precedence:
// hardcoded defaults, file values, then GRAYPANEL_* environment variables.
// Secrets (hub credentials, InfluxDB token, MQTT password) should be supplied
// via the environment rather than committed to the config file.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	window := cfg.DebounceWindow()
package config
