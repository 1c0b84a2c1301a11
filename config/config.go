package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Extract    ExtractConfig    `mapstructure:"extract"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Confidence ConfidenceConfig `mapstructure:"confidence"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig configures logging output and rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	File       string `mapstructure:"file"`        // empty means stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate threshold
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// StorageConfig configures document storage.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local or minio
	Path      string `mapstructure:"path"` // local storage root
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig configures the extraction result cache.
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Type     string `mapstructure:"type"` // memory or redis
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// QueueConfig configures the asynchronous task queue.
type QueueConfig struct {
	Enable        bool   `mapstructure:"enable"`
	Type          string `mapstructure:"type"` // redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Concurrency   int    `mapstructure:"concurrency"`
	RetryLimit    int    `mapstructure:"retry_limit"`
	RetryDelay    int    `mapstructure:"retry_delay"` // seconds
}

// DatabaseConfig configures the job database.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite
	DSN  string `mapstructure:"dsn"`
}

// ExtractConfig configures the field extraction pipeline.
type ExtractConfig struct {
	WeightsFile     string `mapstructure:"weights_file"`     // trained weight table, empty means uniform weights
	WeightedRanking bool   `mapstructure:"weighted_ranking"` // rank mandatory fields by weight instead of cascade order
	MinTextLength   int    `mapstructure:"min_text_length"`  // below this a document is unreadable
	BatchWorkers    int    `mapstructure:"batch_workers"`    // batch endpoint concurrency
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`  // per-document budget
}

// OCRConfig configures the OCR sidecar client.
type OCRConfig struct {
	Enable     bool          `mapstructure:"enable"`
	BaseURL    string        `mapstructure:"base_url"`
	Language   string        `mapstructure:"language"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// ConfidenceConfig configures the embedding classifier sidecar client.
type ConfidenceConfig struct {
	Enable     bool          `mapstructure:"enable"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	MaxTextLen int           `mapstructure:"max_text_len"` // runes sent to the classifier
}

// Load reads configuration from a file and the environment.
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
			setDefaults(v)
			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err == nil {
				if err := v.WriteConfigAs(configPath); err != nil {
					log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
				}
			}
		} else if os.IsNotExist(err) {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	return expandEnvSecrets(&config), nil
}

// expandEnvSecrets resolves ${VAR} placeholders in credential fields.
func expandEnvSecrets(cfg *Config) *Config {
	cfg.Storage.AccessKey = expandEnv(cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = expandEnv(cfg.Storage.SecretKey)
	cfg.Cache.Password = expandEnv(cfg.Cache.Password)
	cfg.Queue.RedisPassword = expandEnv(cfg.Queue.RedisPassword)
	return cfg
}

func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		if envVal := os.Getenv(value[2 : len(value)-1]); envVal != "" {
			return envVal
		}
	}
	return value
}

// setDefaults installs default values into viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.bucket", "invoices")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 86400) // 24h, extraction is deterministic per weight version

	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.type", "redis")
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.retry_limit", 3)
	v.SetDefault("queue.retry_delay", 60)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/jobs.db")

	v.SetDefault("extract.weights_file", "")
	v.SetDefault("extract.weighted_ranking", false)
	v.SetDefault("extract.min_text_length", 10)
	v.SetDefault("extract.batch_workers", 4)
	v.SetDefault("extract.timeout_seconds", 60)

	v.SetDefault("ocr.enable", false)
	v.SetDefault("ocr.base_url", "http://localhost:8500")
	v.SetDefault("ocr.language", "rus")
	v.SetDefault("ocr.timeout", "30s")
	v.SetDefault("ocr.max_retries", 2)
	v.SetDefault("ocr.retry_delay", "1s")

	v.SetDefault("confidence.enable", false)
	v.SetDefault("confidence.base_url", "http://localhost:8600")
	v.SetDefault("confidence.timeout", "20s")
	v.SetDefault("confidence.max_retries", 2)
	v.SetDefault("confidence.retry_delay", "1s")
	v.SetDefault("confidence.max_text_len", 4000)
}
