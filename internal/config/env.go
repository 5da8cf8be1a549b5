package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings are runtime options read from the environment. Command-line
// flags override them.
type Settings struct {
	Script       string  `env:"TRIBUTE_SCRIPT"`
	Audio        string  `env:"TRIBUTE_AUDIO"`
	Player       string  `env:"TRIBUTE_PLAYER" envDefault:"ffplay"`
	Seed         uint64  `env:"TRIBUTE_SEED"`
	Addr         string  `env:"TRIBUTE_ADDR" envDefault:":8080"`
	Output       string  `env:"TRIBUTE_OUTPUT" envDefault:"text"`
	FPS          float64 `env:"TRIBUTE_FPS" envDefault:"10"`
	OTelEndpoint string  `env:"TRIBUTE_OTEL_ENDPOINT"`
}

// LoadSettings reads a .env file when one exists, then the environment.
// Variables already set in the environment win over the file.
func LoadSettings(dotenv ...string) (Settings, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load dotenv: %w", err)
	}
	return ParseSettings()
}

// ParseSettings reads settings from the environment only.
func ParseSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if s.FPS <= 0 {
		return Settings{}, fmt.Errorf("parse env: TRIBUTE_FPS must be positive, got %g", s.FPS)
	}
	return s, nil
}
