package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/subosito/gotenv"

	"github.com/satriahrh/model-compare/domain"
)

// Config is read once at start-up. Provider credentials are optional here:
// a missing key surfaces as an error in that model's response slot.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	Debug     bool   `env:"DEBUG"`
	BodyLimit string `env:"HTTP_BODY_LIMIT" envDefault:"1M"`

	Models []string `env:"MODELS" envSeparator:","`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com/v1"`
	GroqAPIKey       string `env:"GROQ_API_KEY"`
	GroqBaseURL      string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = gotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	return cfg, nil
}

// ModelLineup resolves the fixed set of models for this process.
func (c Config) ModelLineup() ([]domain.Model, error) {
	if len(c.Models) == 0 {
		return domain.DefaultModels(), nil
	}
	return domain.ParseModels(c.Models)
}
