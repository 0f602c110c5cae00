// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	QuestionBank   string        `envconfig:"QUESTION_BANK"`
	NumericBank    string        `envconfig:"NUMERIC_BANK"`
	RoomGrace      time.Duration `envconfig:"ROOM_GRACE" default:"250ms"`
	Debug          bool          `envconfig:"DEBUG"`
}

// Load reads .env if present, then the process environment. Empty bank
// paths fall back to the built-in question sets.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return c, nil
}
