package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads. Values come from an optional
// secrets.json (keys named like the environment variables) and the environment;
// the environment always wins.
type Config struct {
	Port       string `json:"PORT" env:"PORT" env-default:"8000"`
	Env        string `json:"APP_ENV" env:"APP_ENV" env-default:"dev"`
	Version    string `json:"VERSION" env:"VERSION" env-default:"1.0.0"`
	APIBaseURL string `json:"API_BASE_URL" env:"API_BASE_URL" env-default:""`
	BackendKey string `json:"BACKEND_API_KEY" env:"BACKEND_API_KEY" env-default:""`

	OpenAIAPIKey  string `json:"OPENAI_API_KEY" env:"OPENAI_API_KEY"`
	OpenAIModel   string `json:"OPENAI_MODEL" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL string `json:"OPENAI_BASE_URL" env:"OPENAI_BASE_URL"`

	InternalDatabaseAPIKey string `json:"INTERNAL_DATABASE_API_KEY" env:"INTERNAL_DATABASE_API_KEY"`
	InternalDatabaseURL    string `json:"INTERNAL_DATABASE_URL" env:"INTERNAL_DATABASE_URL" env-default:"https://api.apollo.io/api/v1/mixed_people/search"`

	ScrapingDogAPIKey string `json:"SCRAPING_DOG_API_KEY" env:"SCRAPING_DOG_API_KEY"`
	ScrapingDogURL    string `json:"SCRAPING_DOG_URL" env:"SCRAPING_DOG_URL" env-default:"https://api.scrapingdog.com/linkedin"`

	SupabaseURL  string `json:"SUPABASE_URL" env:"SUPABASE_URL"`
	SupabaseKey  string `json:"SUPABASE_KEY" env:"SUPABASE_KEY"`
	DatabaseURL  string `json:"DATABASE_URL" env:"DATABASE_URL"`
	DatabasePath string `json:"DATABASE_PATH" env:"DATABASE_PATH" env-default:"data/prospect.db"`

	HubSpotClientID     string `json:"HUBSPOT_CLIENT_ID" env:"HUBSPOT_CLIENT_ID"`
	HubSpotClientSecret string `json:"HUBSPOT_CLIENT_SECRET" env:"HUBSPOT_CLIENT_SECRET"`
	HubSpotTokenURL     string `json:"HUBSPOT_TOKEN_URL" env:"HUBSPOT_TOKEN_URL" env-default:"https://api.hubapi.com/oauth/v1/token"`

	UseAIBehavioralMetrics bool   `json:"USE_AI_BEHAVIORAL_METRICS" env:"USE_AI_BEHAVIORAL_METRICS" env-default:"false"`
	WikipediaAPIURL        string `json:"WIKIPEDIA_API_URL" env:"WIKIPEDIA_API_URL" env-default:"https://en.wikipedia.org/w/api.php"`
	RedisAddr              string `json:"REDIS_ADDR" env:"REDIS_ADDR"`
	RulesPath              string `json:"RULES_PATH" env:"RULES_PATH"`
}

// Load reads .env files, then secretsFile (if it exists), then the environment.
func Load(secretsFile string) (*Config, error) {
	// .env is optional; the parent directory is checked too so `go run ./cmd/server`
	// works from either the repo root or cmd/.
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	var cfg Config
	if secretsFile != "" {
		if _, err := os.Stat(secretsFile); err == nil {
			if err := cleanenv.ReadConfig(secretsFile, &cfg); err != nil {
				return nil, fmt.Errorf("read %s: %w", secretsFile, err)
			}
			return cfg.normalize(), nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", secretsFile, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg.normalize(), nil
}

func (c *Config) normalize() *Config {
	c.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:" + c.Port
	}
	return c
}

// Integrations reports which upstream credentials are configured.
func (c *Config) Integrations() map[string]bool {
	return map[string]bool{
		"openai":            c.OpenAIAPIKey != "",
		"internal_database": c.InternalDatabaseAPIKey != "",
		"scraping_dog":      c.ScrapingDogAPIKey != "",
		"supabase":          c.SupabaseURL != "" && c.SupabaseKey != "",
		"postgres":          c.DatabaseURL != "",
		"hubspot":           c.HubSpotClientID != "" && c.HubSpotClientSecret != "",
		"redis":             c.RedisAddr != "",
	}
}
