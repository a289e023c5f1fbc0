// Package config handles loading and validating Gray Logic Voice configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Picking up broker settings from the Snips platform file (TOML)
//   - Overriding with environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.OpenHAB.URL)
package config
