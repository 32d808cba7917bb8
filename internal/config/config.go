package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends for generated question sets.
const (
	CacheNone   = ""
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Generation struct {
		APIKey           string `yaml:"api_key"`
		BaseURL          string `yaml:"base_url"`
		Model            string `yaml:"model"`
		Timeout          string `yaml:"timeout"`
		DefaultQuestions int    `yaml:"default_questions"`
		MaxQuestions     int    `yaml:"max_questions"`
		Cache            string `yaml:"cache"`
		CacheTTL         string `yaml:"cache_ttl"`
	} `yaml:"generation"`
	Game struct {
		QuestionTime int    `yaml:"question_time"`
		Tick         string `yaml:"tick"`
	} `yaml:"game"`
	Seed struct {
		Demo *bool `yaml:"demo"`
	} `yaml:"seed"`
}

// Load reads YAML config from path. A missing file yields the zero config when
// allowMissing is set.
func Load(path string, allowMissing bool) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			return cfg.withEnv(), nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg.withEnv(), nil
}

// validate rejects duration fields that Duration would otherwise replace with a fallback.
func (c Config) validate() error {
	durations := []struct {
		field string
		raw   string
	}{
		{"generation.timeout", c.Generation.Timeout},
		{"generation.cache_ttl", c.Generation.CacheTTL},
		{"game.tick", c.Game.Tick},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.field, err)
		}
		if v < 0 {
			return fmt.Errorf("config %s: negative duration %q", d.field, d.raw)
		}
	}
	return nil
}

func (c Config) withEnv() Config {
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return c
}

// SeedDemo reports whether the demo module should be loaded; it defaults to true.
func (c Config) SeedDemo() bool {
	return c.Seed.Demo == nil || *c.Seed.Demo
}

// Duration parses a duration string or returns the fallback if empty or invalid. Load has
// already rejected invalid values in a loaded Config.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
