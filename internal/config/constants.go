package config

// Application constants
const (
	AppName    = "Marketing Data Engine"
	AppVersion = "1.0.0"
)
