package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML server configuration. Environment variables
// override the file for deployment-specific settings.
type Config struct {
	Game struct {
		QuestionsPerMatch int    `yaml:"questions_per_match"`
		Category          string `yaml:"category"`
		StartDelaySec     int    `yaml:"start_delay_sec"`
		RevealDelaySec    int    `yaml:"reveal_delay_sec"`
	} `yaml:"game"`
	Questions struct {
		// Source selects where the bank is loaded from: "postgres" or "file".
		Source string `yaml:"source"`
		File   string `yaml:"file"`
	} `yaml:"questions"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Game.QuestionsPerMatch = 5
	cfg.Game.StartDelaySec = 3
	cfg.Game.RevealDelaySec = 2
	cfg.Questions.Source = "postgres"
	cfg.Questions.File = "questions.yaml"
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) startDelay() time.Duration {
	return time.Duration(c.Game.StartDelaySec) * time.Second
}

func (c *Config) revealDelay() time.Duration {
	return time.Duration(c.Game.RevealDelaySec) * time.Second
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
