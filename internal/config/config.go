package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultTCPAddr      = ":8000"
	DefaultMaxLine      = 4096
	DefaultWriteTimeout = 5 * time.Second
	DefaultServerAddr   = "localhost:8000"
	DefaultUsername     = "DefaultUser"
)

// Config is the server configuration. An empty WSAddr or HTTPAddr disables
// that listener.
type Config struct {
	TCPAddr      string
	WSAddr       string
	HTTPAddr     string
	MaxLineBytes int
	WriteTimeout time.Duration
	LogLevel     string
}

// ClientConfig is what the line client needs to reach a server.
type ClientConfig struct {
	ServerAddr string
	Username   string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return def
	}
	return d
}

func Load() *Config {
	return &Config{
		TCPAddr:      getEnv("CHAT_TCP_ADDR", DefaultTCPAddr),
		WSAddr:       getEnv("CHAT_WS_ADDR", ""),
		HTTPAddr:     getEnv("CHAT_HTTP_ADDR", ""),
		MaxLineBytes: getInt("CHAT_MAX_LINE", DefaultMaxLine),
		WriteTimeout: getDuration("CHAT_WRITE_TIMEOUT", DefaultWriteTimeout),
		LogLevel:     getEnv("CHAT_LOG_LEVEL", "info"),
	}
}

func LoadClient() *ClientConfig {
	return &ClientConfig{
		ServerAddr: getEnv("CHAT_SERVER_ADDR", DefaultServerAddr),
		Username:   getEnv("CHAT_USERNAME", DefaultUsername),
	}
}
