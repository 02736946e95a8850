package config

import "time"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
}

// LoadServer reads server settings from the environment.
func LoadServer() ServerConfig {
	loadEnv()
	return ServerConfig{
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Port:            getInt("SERVER_PORT", 8080),
		ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPS:    getFloat("SERVER_RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getInt("SERVER_RATE_LIMIT_BURST", 20),
	}
}
