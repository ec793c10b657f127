// Package config loads the engine configuration.
//
// # Configuration Sources
//
// Values are resolved in order of increasing precedence:
//
//	1. Default()
//	2. A YAML file named by MDE_CONFIG_FILE, or ./config.yaml, or ./configs/config.yaml
//	3. MDE_* environment variables, after loading an optional .env file
//
// # Environment Variables
//
// Nested sections join their names with underscores:
//
//	MDE_SERVER_PORT=9090
//	MDE_LOGGING_LEVEL=debug
//	MDE_PIPELINE_DEFAULT_CURRENCY=EUR
//	MDE_PIPELINE_ALLOWED_EXTENSIONS=.csv,.json
//	MDE_INSIGHTS_MODE=external
//	MDE_INSIGHTS_ENDPOINT=https://insights.example.com/v1/generate
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests and the CLI use Default() directly.
package config
