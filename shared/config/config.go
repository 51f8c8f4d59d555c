package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cinema-agent/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TMDB       TMDBConfig              `yaml:"tmdb"`
	Streaming  StreamingConfig         `yaml:"streaming"`
	Cache      CacheConfig             `yaml:"cache"`
	Data       DataConfig              `yaml:"data"`
	Recommend  RecommendConfig         `yaml:"recommend"`
	Tracker    TrackerConfig           `yaml:"tracker"`
	AI         AIConfig                `yaml:"ai"`
	Email      EmailConfig             `yaml:"email"`
	Logging    LoggingConfig           `yaml:"logging"`
	Monitoring MonitoringConfig        `yaml:"monitoring"`
	Lists      []models.SavedListEntry `yaml:"lists"`
}

type TMDBConfig struct {
	APIKey         string `yaml:"api_key" env:"TMDB_API_KEY"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StreamingConfig struct {
	Region   string `yaml:"region" env:"STREAMING_COUNTRY_CODE"`
	Services string `yaml:"services" env:"STREAMING_SERVICES"` // comma-separated
}

// Subscriptions returns the configured services as a case-insensitive set
func (s StreamingConfig) Subscriptions() models.Subscriptions {
	return models.NewSubscriptions(strings.Split(s.Services, ",")...)
}

// RegionCode returns the upper-case two-letter region
func (s StreamingConfig) RegionCode() string {
	return strings.ToUpper(strings.TrimSpace(s.Region))
}

type CacheConfig struct {
	Path               string        `yaml:"path" env:"CINEMA_CACHE_PATH"`
	DetailsTTL         time.Duration `yaml:"details_ttl"`
	DiscoverTTL        time.Duration `yaml:"discover_ttl"`
	WatchProvidersTTL  time.Duration `yaml:"watch_providers_ttl"`
	ProviderCatalogTTL time.Duration `yaml:"provider_catalog_ttl"`
	SavedListTTL       time.Duration `yaml:"saved_list_ttl"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type RecommendConfig struct {
	DiscoverPages   int           `yaml:"discover_pages"`
	TopN            int           `yaml:"top_n"`
	RandomAttempts  int           `yaml:"random_attempts"`
	RandomMaxPage   int           `yaml:"random_max_page"`
	ItemDelay       time.Duration `yaml:"item_delay"`
	MaxFailureRatio float64       `yaml:"max_failure_ratio"`
	Schedule        string        `yaml:"schedule"`
}

type TrackerConfig struct {
	ItemDelay time.Duration `yaml:"item_delay"`
	Schedule  string        `yaml:"schedule"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether enough is configured to send mail
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// ConfigError reports a missing or invalid setting. It is fatal at startup.
type ConfigError struct {
	Field string
	Hint  string
}

func (e *ConfigError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("config: %s is required", e.Field)
	}
	return fmt.Sprintf("config: %s is required (%s)", e.Field, e.Hint)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment-only setup
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.TMDB.APIKey, "TMDB_API_KEY")
	setFromEnv(&c.Streaming.Region, "STREAMING_COUNTRY_CODE")
	setFromEnv(&c.Streaming.Services, "STREAMING_SERVICES")
	setFromEnv(&c.Cache.Path, "CINEMA_CACHE_PATH")
	setFromEnv(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.Email.Username, "EMAIL_USERNAME")
	setFromEnv(&c.Email.Password, "EMAIL_PASSWORD")
	setFromEnv(&c.Logging.Level, "LOG_LEVEL")
	setFromEnv(&c.Logging.Format, "LOG_FORMAT")
}

func setFromEnv(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func (c *Config) applyDefaults() {
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = "https://api.themoviedb.org/3"
	}
	if c.TMDB.TimeoutSeconds == 0 {
		c.TMDB.TimeoutSeconds = 15
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/cache.sqlite"
	}
	if c.Cache.DiscoverTTL == 0 {
		c.Cache.DiscoverTTL = 24 * time.Hour
	}
	if c.Cache.WatchProvidersTTL == 0 {
		c.Cache.WatchProvidersTTL = 12 * time.Hour
	}
	if c.Cache.ProviderCatalogTTL == 0 {
		c.Cache.ProviderCatalogTTL = 7 * 24 * time.Hour
	}
	if c.Cache.SavedListTTL == 0 {
		c.Cache.SavedListTTL = time.Hour
	}
	if c.Recommend.DiscoverPages == 0 {
		c.Recommend.DiscoverPages = 5
	}
	if c.Recommend.TopN == 0 {
		c.Recommend.TopN = 5
	}
	if c.Recommend.RandomAttempts == 0 {
		c.Recommend.RandomAttempts = 20
	}
	if c.Recommend.RandomMaxPage == 0 {
		c.Recommend.RandomMaxPage = 20
	}
	if c.Recommend.ItemDelay == 0 {
		c.Recommend.ItemDelay = 250 * time.Millisecond
	}
	if c.Recommend.MaxFailureRatio == 0 {
		c.Recommend.MaxFailureRatio = 0.5
	}
	if c.Recommend.Schedule == "" {
		c.Recommend.Schedule = "0 0 10 * * 0" // Sundays at 10 AM
	}
	if c.Tracker.ItemDelay == 0 {
		c.Tracker.ItemDelay = 250 * time.Millisecond
	}
	if c.Tracker.Schedule == "" {
		c.Tracker.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

// Validate checks the settings every agent needs
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" {
		return &ConfigError{Field: "TMDB API key", Hint: "set TMDB_API_KEY or tmdb.api_key"}
	}
	if c.Streaming.RegionCode() == "" {
		return &ConfigError{Field: "streaming region", Hint: "set STREAMING_COUNTRY_CODE or streaming.region"}
	}
	if len(c.Streaming.RegionCode()) != 2 {
		return &ConfigError{Field: "streaming region", Hint: fmt.Sprintf("%q is not a two-letter country code", c.Streaming.Region)}
	}
	return nil
}

// ValidateSubscriptions is required by flows that filter on subscribed services
func (c *Config) ValidateSubscriptions() error {
	if len(c.Streaming.Subscriptions()) == 0 {
		return &ConfigError{Field: "streaming services", Hint: "set STREAMING_SERVICES or streaming.services"}
	}
	return nil
}

// ValidateEmail is required before an agent sends a digest
func (c *Config) ValidateEmail() error {
	if c.Email.Username == "" {
		return &ConfigError{Field: "email username", Hint: "set EMAIL_USERNAME or email.username"}
	}
	if c.Email.Password == "" {
		return &ConfigError{Field: "email password", Hint: "set EMAIL_PASSWORD or email.password"}
	}
	if !c.Email.Enabled() {
		return &ConfigError{Field: "email smtp_server and to_email"}
	}
	return nil
}
