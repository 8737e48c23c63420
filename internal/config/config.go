// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration
type Config struct {
	Addr   string `env:"NFE_AUDITOR_ADDR" envDefault:":8080"`
	DBPath string `env:"NFE_AUDITOR_DB" envDefault:"memoria_fiscal.db"`

	// CNAE of the company whose documents are processed; enables the
	// matching sector rule profile when set.
	CNAE string `env:"NFE_AUDITOR_CNAE"`

	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	LLMModel   string `env:"LLM_MODEL"`

	ReadTimeout  time.Duration `env:"NFE_AUDITOR_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"NFE_AUDITOR_WRITE_TIMEOUT" envDefault:"5m"`
	Debug        bool          `env:"NFE_AUDITOR_DEBUG"`
}

// Load parses configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
