// Package config loads service configuration with viper.
//
// LoadConfig looks for cmd/<service>/config.yml and an optional .env file,
// then lets environment variables override any key present in the YAML
// (ROUTER_CALL_TIMEOUT overrides router.call_timeout).
package config
