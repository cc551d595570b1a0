package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for every environment variable read by Load
const EnvPrefix = "COVIDWATCH_"

// sections are the nested config blocks; COVIDWATCH_REDIS_HOST -> redis.host
var sections = map[string]bool{
	"upstream":  true,
	"cache":     true,
	"storage":   true,
	"database":  true,
	"redis":     true,
	"scheduler": true,
	"dashboard": true,
}

// Load builds a Config by layering defaults, optional YAML file, and env vars.
// Precedence (low -> high):
//  1. Default()
//  2. YAML file at path, or COVIDWATCH_CONFIG when path is empty
//  3. COVIDWATCH_* environment variables (a .env file is loaded first)
//
// ⭐ SSOT: 이 함수만 환경변수를 읽음
func Load(path string) (*Config, error) {
	loadEnvFile()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envKey maps COVIDWATCH_REDIS_HOST -> redis.host and COVIDWATCH_LOG_LEVEL -> log_level
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	head, rest, found := strings.Cut(s, "_")
	if found && sections[head] {
		return head + "." + rest
	}
	return s
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
