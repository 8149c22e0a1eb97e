package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/engine"
)

const maxPlayersLimit = 8

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	PublicURL      string
	DatabaseURL    string
	NatsURL        string
	NatsSubject    string
	AllowedOrigins []string
	Rules          engine.Rules
}

func (c Config) Production() bool { return c.Env == "production" }

// Load reads the environment, seeded from .env when one exists, and the
// optional rules file named by RULES_FILE.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	port := getEnv("PORT", "3000")
	cfg := Config{
		Port:           port,
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PublicURL:      getEnv("PUBLIC_URL", "http://localhost:"+port),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		NatsURL:        os.Getenv("NATS_URL"),
		NatsSubject:    getEnv("NATS_SUBJECT", "yahtzee.events"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Rules:          engine.DefaultRules(),
	}

	if path := os.Getenv("RULES_FILE"); path != "" {
		rules, err := LoadRules(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Rules = rules
	}
	return cfg, nil
}

// rulesFile mirrors engine.Rules; absent keys keep their defaults.
type rulesFile struct {
	MaxPlayers       *int `yaml:"max_players"`
	DozOverlayMs     *int `yaml:"doz_overlay_ms"`
	HeartbeatDelayMs *int `yaml:"heartbeat_delay_ms"`
	CheatMax         *int `yaml:"cheat_max"`
	ReportReward     *int `yaml:"report_reward"`
}

func LoadRules(path string) (engine.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (engine.Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return engine.Rules{}, fmt.Errorf("failed to parse rules: %w", err)
	}

	r := engine.DefaultRules()
	if f.MaxPlayers != nil {
		r.MaxPlayers = *f.MaxPlayers
	}
	if f.DozOverlayMs != nil {
		r.DozOverlay = time.Duration(*f.DozOverlayMs) * time.Millisecond
	}
	if f.HeartbeatDelayMs != nil {
		r.HeartbeatDelay = time.Duration(*f.HeartbeatDelayMs) * time.Millisecond
	}
	if f.CheatMax != nil {
		r.CheatMax = *f.CheatMax
	}
	if f.ReportReward != nil {
		r.ReportReward = *f.ReportReward
	}

	if err := Validate(r); err != nil {
		return engine.Rules{}, err
	}
	return r, nil
}

func Validate(r engine.Rules) error {
	switch {
	case r.MaxPlayers < 1 || r.MaxPlayers > maxPlayersLimit:
		return fmt.Errorf("max_players must be between 1 and %d, got %d", maxPlayersLimit, r.MaxPlayers)
	case r.DozOverlay <= 0:
		return errors.New("doz_overlay_ms must be positive")
	case r.HeartbeatDelay <= 0:
		return errors.New("heartbeat_delay_ms must be positive")
	case r.HeartbeatDelay >= r.DozOverlay:
		return errors.New("heartbeat_delay_ms must be shorter than doz_overlay_ms")
	case r.CheatMax < 0:
		return errors.New("cheat_max must not be negative")
	case r.ReportReward < 0:
		return errors.New("report_reward must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
