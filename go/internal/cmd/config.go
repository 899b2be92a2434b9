package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the yaml file configuration. Environment variables cover
// credentials; the file covers tuning.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Texts struct {
		GeneratorURL string `yaml:"generator_url"`
	} `yaml:"texts"`

	Relay struct {
		Mode string `yaml:"mode"` // "memory" or "nats"
		URL  string `yaml:"url"`
	} `yaml:"relay"`

	Race struct {
		CountdownFrom         int `yaml:"countdown_from"`
		ProgressMinIntervalMS int `yaml:"progress_min_interval_ms"`
		RematchTimeoutSec     int `yaml:"rematch_timeout_sec"`
	} `yaml:"race"`
}

func defaultConfig() *Config {
	var config Config
	config.Server.Port = getEnv("PORT", "8080")
	config.Relay.Mode = "memory"
	config.Race.CountdownFrom = 3
	config.Race.ProgressMinIntervalMS = 250
	config.Race.RematchTimeoutSec = 30
	return &config
}

// loadConfig reads the yaml config; a missing file falls back to defaults.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Server.Port == "" {
		config.Server.Port = getEnv("PORT", "8080")
	}
	return config, nil
}

func (c *Config) progressMinInterval() time.Duration {
	return time.Duration(c.Race.ProgressMinIntervalMS) * time.Millisecond
}

func (c *Config) rematchTimeout() time.Duration {
	return time.Duration(c.Race.RematchTimeoutSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
