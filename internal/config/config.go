package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// MailConfig points at the mail source API. The access token lifecycle is
// handled outside this process; we only carry a bearer token.
type MailConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	UserID  string `yaml:"user_id"`
}

// SheetsConfig points at the spreadsheet sink API.
type SheetsConfig struct {
	BaseURL       string `yaml:"base_url"`
	Token         string `yaml:"token"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
}

// AIConfig configures the structured-extraction collaborator.
type AIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
}

// SearchConfig configures web lookup enrichment.
type SearchConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	MaxResults   int           `yaml:"max_results"`
	PersonMax    int           `yaml:"person_max_results"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxToolCalls int           `yaml:"max_tool_calls"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheSize    int           `yaml:"cache_size"`
}

// PipelineConfig sizes the background worker pool.
type PipelineConfig struct {
	Workers     int           `yaml:"workers"`
	QueueSize   int           `yaml:"queue_size"`
	IngestLimit int           `yaml:"ingest_limit"`
	BodyPrefix  int           `yaml:"body_prefix"`
	DedupeTTL   time.Duration `yaml:"dedupe_ttl"`
}

// SyncConfig drives the periodic export synchronizer.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	DB       DBConfig       `yaml:"db"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Server   ServerConfig   `yaml:"server"`
	Mail     MailConfig     `yaml:"mail"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	AI       AIConfig       `yaml:"ai"`
	Search   SearchConfig   `yaml:"search"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sync     SyncConfig     `yaml:"sync"`
}

func Load() *Config {
	path := getEnv("CONFIG_PATH", "config.yaml")

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if token := os.Getenv("MAIL_TOKEN"); token != "" {
		cfg.Mail.Token = token
	}
	if token := os.Getenv("SHEETS_TOKEN"); token != "" {
		cfg.Sheets.Token = token
	}
	if id := os.Getenv("SPREADSHEET_ID"); id != "" {
		cfg.Sheets.SpreadsheetID = id
	}
	if key := os.Getenv("AI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}
	if m := os.Getenv("AI_MODEL"); m != "" {
		cfg.AI.Model = m
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4.1-mini"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.AI.Temperature <= 0 {
		cfg.AI.Temperature = 0.35
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 6
	}
	if cfg.Search.PersonMax <= 0 {
		cfg.Search.PersonMax = 4
	}
	if cfg.Search.Timeout <= 0 {
		cfg.Search.Timeout = 6 * time.Second
	}
	if cfg.Search.MaxToolCalls <= 0 {
		cfg.Search.MaxToolCalls = 2
	}
	if cfg.Search.RatePerSec <= 0 {
		cfg.Search.RatePerSec = 2
	}
	if cfg.Search.CacheTTL <= 0 {
		cfg.Search.CacheTTL = time.Hour
	}
	if cfg.Search.CacheSize <= 0 {
		cfg.Search.CacheSize = 512
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.QueueSize <= 0 {
		cfg.Pipeline.QueueSize = 256
	}
	if cfg.Pipeline.IngestLimit <= 0 {
		cfg.Pipeline.IngestLimit = 20
	}
	if cfg.Pipeline.BodyPrefix <= 0 {
		cfg.Pipeline.BodyPrefix = 2000
	}
	if cfg.Pipeline.DedupeTTL <= 0 {
		cfg.Pipeline.DedupeTTL = 10 * time.Minute
	}
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = time.Minute
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
