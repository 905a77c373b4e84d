package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Storage struct {
		// Driver is one of memory, postgres or mongo.
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Quiz struct {
		TTL string `yaml:"ttl"`
		// SeedPath points at a YAML file of quizzes loaded into the memory store.
		SeedPath string `yaml:"seed_path"`
	} `yaml:"quiz"`
	Scoring struct {
		UseQuizPassingScore bool `yaml:"use_quiz_passing_score"`
	} `yaml:"scoring"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
		MaxKeys  int    `yaml:"max_keys"`
	} `yaml:"rate_limit"`
}

// Load reads YAML config from path. Environment variables override the file
// so secrets can stay out of it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.AMQP.URL, "AMQP_URL")
	if v := os.Getenv("USE_QUIZ_PASSING_SCORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Scoring.UseQuizPassingScore = b
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// StorageDriver picks the configured driver, falling back to whichever
// connection string is set and finally to memory.
func (c Config) StorageDriver() string {
	switch {
	case c.Storage.Driver != "":
		return c.Storage.Driver
	case c.Postgres.URL != "":
		return "postgres"
	case c.Mongo.URI != "":
		return "mongo"
	default:
		return "memory"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
