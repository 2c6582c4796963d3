package core

import (
	"time"
)

type Config struct {
	Qobuz   QobuzConfig
	Quality QualityConfig
	Store   StoreConfig
	Server  ServerConfig
	Log     LogConfig
}

type QobuzConfig struct {
	AppID     string
	AppSecret string
}

type QualityConfig struct {
	Tier QualityTier
	// Format renders an album quality string; recognized placeholders are
	// {sample_rate} and {bit_depth}.
	Format string
}

type StoreConfig struct {
	SettingsPath string
	CacheSize    int
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Quality: QualityConfig{
			Tier:   QualityHiFi,
			Format: "{sample_rate}kHz {bit_depth}bit",
		},
		Store: StoreConfig{
			SettingsPath: "./qobuzdl_settings.db",
			CacheSize:    10000,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
