package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/strrl/polar-persona/internal/topics"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration

	Language   topics.Language
	TopicsFile string

	HistoryPath    string
	TranscriptFile string
	Session        string
	OutputDir      string
	DBPath         string

	CacheSize int
	Port      int
	LogLevel  string
	Seed      uint64
}

// AIEnabled reports whether a provider credential is configured. Without
// one, replies come from the local tables and translation is skipped.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadConfig reads an optional .env file and then the process environment.
// Malformed numeric or duration values are reported, not defaulted.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		APIKey:         getEnv("OPENROUTER_API_KEY", ""),
		BaseURL:        getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:          getEnv("POLAR_MODEL", "google/gemini-2.5-flash"),
		Language:       topics.Preferred(getEnv("POLAR_LANGUAGE", string(topics.BaseLanguage))),
		TopicsFile:     getEnv("POLAR_TOPICS_FILE", ""),
		HistoryPath:    getEnv("POLAR_HISTORY_PATH", "./history/*.jsonl"),
		TranscriptFile: getEnv("POLAR_TRANSCRIPT_FILE", "./history/transcript.jsonl"),
		Session:        getEnv("POLAR_SESSION", ""),
		OutputDir:      getEnv("POLAR_OUTPUT_DIR", "."),
		DBPath:         expandHome(getEnv("POLAR_DB_PATH", "~/.polar-persona/blueprints.db")),
		LogLevel:       getEnv("POLAR_LOG_LEVEL", "info"),
	}

	var err error
	if conf.Temperature, err = getFloat("POLAR_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if conf.Timeout, err = getDuration("POLAR_TIMEOUT", 45*time.Second); err != nil {
		return nil, err
	}
	if conf.CacheSize, err = getInt("POLAR_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if conf.Port, err = getInt("POLAR_PORT", 8088); err != nil {
		return nil, err
	}
	if conf.Seed, err = getUint("POLAR_SEED", 0); err != nil {
		return nil, err
	}

	return conf, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getUint(key string, defaultValue uint64) (uint64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
