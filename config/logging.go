package config

import "strings"

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Encoding    string
	OutputPaths []string
}

// LoadLog reads logger settings from the environment.
func LoadLog() LogConfig {
	loadEnv()
	return LogConfig{
		Level:       getEnv("LOG_LEVEL", "info"),
		Encoding:    getEnv("LOG_ENCODING", "json"),
		OutputPaths: strings.Split(getEnv("LOG_OUTPUT_PATHS", "stdout,logs/app.log"), ","),
	}
}
