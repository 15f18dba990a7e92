package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"
)

type Config struct {
	Env           string
	LogLevel      string
	ListenAddr    string
	DBType        string
	DBDSN         string
	FileLoops     string
	FileCheckIns  string
	LocalToken    string
	AuthURL       string
	SweepToken    string
	SweepInterval time.Duration
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = loadDotEnv()
		cfg = &Config{
			Env:           getEnv("APP_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			ListenAddr:    getEnv("LISTEN_ADDR", ":8088"),
			DBType:        getEnv("STORAGE_BACKEND", "file"),
			DBDSN:         getEnv("POSTGRES_DSN", ""),
			FileLoops:     getEnv("LOOPS_FILE", "data/loops.json"),
			FileCheckIns:  getEnv("CHECKINS_FILE", "data/checkins.json"),
			LocalToken:    getEnv("LOCAL_AUTH_TOKEN", "MOCK-TOKEN"),
			AuthURL:       getEnv("AUTH_SERVICE_URL", ""),
			SweepToken:    getEnv("SWEEP_TOKEN", ""),
			SweepInterval: getDuration("SWEEP_INTERVAL", 24*time.Hour),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.DBType == "postgres" && c.DBDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.DBType == "file" && (c.FileLoops == "" || c.FileCheckIns == "") {
		return errors.New("File storage requires LOOPS_FILE and CHECKINS_FILE to be set")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.AuthURL == "" {
		return errors.New("AUTH_SERVICE_URL is required outside development")
	}
	if c.Env != "development" && c.SweepToken == "" {
		return errors.New("SWEEP_TOKEN is required outside development")
	}
	if c.SweepInterval < time.Minute {
		return errors.New("SWEEP_INTERVAL must be at least one minute")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		data, err := os.ReadFile(".env")
		if err != nil {
			return err
		}
		for _, l := range splitLines(string(data)) {
			if len(l) == 0 || l[0] == '#' {
				continue
			}
			kv := splitKV(l)
			if len(kv) == 2 {
				os.Setenv(kv[0], kv[1])
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' || c == '\r' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitKV(s string) []string {
	for i, c := range s {
		if c == '=' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}
