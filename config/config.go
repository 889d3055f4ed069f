package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the vigia service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	JWTSecret   string   `mapstructure:"jwt_secret"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SourcesConfig contains per-provider search agent configuration
type SourcesConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Backoff time.Duration `mapstructure:"backoff"`

	BOE          BOEConfig          `mapstructure:"boe"`
	NewsAPI      NewsAPIConfig      `mapstructure:"newsapi"`
	RSS          RSSConfig          `mapstructure:"rss"`
	YahooFinance YahooFinanceConfig `mapstructure:"yahoo_finance"`
}

// BOEConfig configures the Spanish regulatory gazette agent
type BOEConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	FetchText bool   `mapstructure:"fetch_text"`
}

// NewsAPIConfig configures the newsapi.org agent
type NewsAPIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Endpoint      string `mapstructure:"endpoint"`
	MaxResults    int    `mapstructure:"max_results"`
	RateLimitDays int    `mapstructure:"rate_limit_days"`
}

// RSSConfig configures the RSS news outlet agents
type RSSConfig struct {
	Feeds       map[string][]string `mapstructure:"feeds"`
	ExtractText bool                `mapstructure:"extract_text"`
	MaxArticles int                 `mapstructure:"max_articles"`
}

// YahooFinanceConfig configures the financial data agent
type YahooFinanceConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	TickerTTL time.Duration `mapstructure:"ticker_ttl"`
}

// LLMConfig contains the Gemini model configuration
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Endpoint      string        `mapstructure:"endpoint"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BackoffBase   time.Duration `mapstructure:"backoff_base"`
	BackoffCap    time.Duration `mapstructure:"backoff_cap"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// StorageConfig contains database and cache settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// LoadConfig reads configuration from file and environment
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("vigia")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("VIGIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional - defaults plus env are enough to run
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")

	viper.SetDefault("server.addr", ":10010")
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("sources.timeout", 15*time.Second)
	viper.SetDefault("sources.retries", 2)
	viper.SetDefault("sources.backoff", 300*time.Millisecond)
	viper.SetDefault("sources.boe.endpoint", "https://www.boe.es/datosabiertos/api/boe/sumario")
	viper.SetDefault("sources.boe.fetch_text", true)
	viper.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	viper.SetDefault("sources.newsapi.max_results", 20)
	viper.SetDefault("sources.newsapi.rate_limit_days", 29)
	viper.SetDefault("sources.rss.extract_text", false)
	viper.SetDefault("sources.rss.max_articles", 20)
	viper.SetDefault("sources.rss.feeds", map[string][]string{
		"elpais":         {"https://feeds.elpais.com/mrss-s/pages/ep/site/elpais.com/section/economia/portada"},
		"elmundo":        {"https://e00-elmundo.uecdn.es/elmundo/rss/economia.xml"},
		"expansion":      {"https://e00-expansion.uecdn.es/rss/empresas.xml"},
		"lavanguardia":   {"https://www.lavanguardia.com/rss/economia.xml"},
		"elconfidencial": {"https://rss.elconfidencial.com/empresas/"},
		"eldiario":       {"https://www.eldiario.es/rss/economia/"},
		"europapress":    {"https://www.europapress.es/rss/rss.aspx?ch=00136"},
		"abc":            {"https://www.abc.es/rss/feeds/abc_Economia.xml"},
	})
	viper.SetDefault("sources.yahoo_finance.endpoint", "https://query1.finance.yahoo.com")
	viper.SetDefault("sources.yahoo_finance.ticker_ttl", 24*time.Hour)

	viper.SetDefault("llm.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("llm.model", "gemini-1.5-pro")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("llm.max_attempts", 3)
	viper.SetDefault("llm.backoff_base", 4*time.Second)
	viper.SetDefault("llm.backoff_cap", 10*time.Second)
	viper.SetDefault("llm.max_concurrent", 4)

	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.addr", "")
	viper.SetDefault("storage.redis.db", 0)

	viper.SetDefault("telemetry.enabled", true)
}

// overrideFromEnv maps well-known environment variables onto sensitive fields
func overrideFromEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		viper.Set("llm.api_key", v)
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" && viper.GetString("llm.api_key") == "" {
		viper.Set("llm.api_key", v)
	}
	if v := os.Getenv("NEWSAPI_API_KEY"); v != "" {
		viper.Set("sources.newsapi.api_key", v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		viper.Set("storage.postgres.url", v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		viper.Set("storage.redis.addr", v)
	}
	if v := os.Getenv("VIGIA_JWT_SECRET"); v != "" {
		viper.Set("server.jwt_secret", v)
	}
}

func validateConfig(c *Config) error {
	if c.LLM.MaxAttempts <= 0 {
		return fmt.Errorf("llm.max_attempts must be positive")
	}
	if c.LLM.BackoffBase <= 0 || c.LLM.BackoffCap < c.LLM.BackoffBase {
		return fmt.Errorf("llm backoff schedule invalid (base %v, cap %v)", c.LLM.BackoffBase, c.LLM.BackoffCap)
	}
	if c.LLM.MaxConcurrent <= 0 {
		return fmt.Errorf("llm.max_concurrent must be positive")
	}
	if c.Sources.Timeout <= 0 {
		return fmt.Errorf("sources.timeout must be positive")
	}
	return nil
}
