// Package config provides configuration loading and validation for
// streamkit binaries.
//
// It uses Viper to load a YAML file, then overlays variables from an
// optional .env file (godotenv) and the process environment.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("anyprobe", &cfg,
//	    config.WithConfigFile("config.yml"),
//	    config.WithEnvPrefix("ANYPROBE"),
//	)
//
// Environment variables map onto nested keys by splitting on underscores,
// so ANYPROBE_PROBE_THRESHOLD sets probe.threshold.
package config
