package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"StratLab/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		BodyLimit       string        `yaml:"body_limit" default:"64M"`
		DisableCORS     bool          `yaml:"disable_cors"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Analysis struct {
		MarketSymbol      string   `yaml:"market_symbol" default:"SPY"`
		ConfidenceLevel   float64  `yaml:"confidence_level" default:"0.99"`
		MaxUploadBytes    int64    `yaml:"max_upload_bytes" default:"52428800"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
	} `yaml:"analysis"`
	Storage struct {
		UploadDir string `yaml:"upload_dir" default:"data/uploads"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers" default:"2"`
		RetryLimit int           `yaml:"retry_limit" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		KeyPrefix  string        `yaml:"key_prefix" default:"stratlab:queue"`
	} `yaml:"queue"`
	Tasks struct {
		ResultTTL     time.Duration `yaml:"result_ttl" default:"24h"`
		WatchInterval time.Duration `yaml:"watch_interval" default:"1s"`
	} `yaml:"tasks"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"stratlab.analysis.completed"`
		Compression  string        `yaml:"compression" default:"gzip"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"2"`
		Burst int     `yaml:"burst" default:"5"`
	} `yaml:"ratelimit"`
}

// DefaultAllowedExtensions are accepted when analysis.allowed_extensions is empty.
var DefaultAllowedExtensions = []string{".csv", ".parquet"}

// Default returns a Config with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := applyDefaults(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyDefaults(&c); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Storage.UploadDir = v
	}
	if v := os.Getenv("MARKET_SYMBOL"); v != "" {
		c.Analysis.MarketSymbol = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	c.Queue.Workers = util.ParseIntDefault(os.Getenv("QUEUE_WORKERS"), c.Queue.Workers)
	c.Kafka.Enabled = util.ParseBoolDefault(os.Getenv("KAFKA_ENABLED"), c.Kafka.Enabled)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func applyDefaults(c *Config) error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if len(c.Analysis.AllowedExtensions) == 0 {
		c.Analysis.AllowedExtensions = append([]string(nil), DefaultAllowedExtensions...)
	}
	for i, ext := range c.Analysis.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Analysis.AllowedExtensions[i] = ext
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if cl := c.Analysis.ConfidenceLevel; cl <= 0 || cl >= 1 {
		return fmt.Errorf("analysis.confidence_level must be in (0,1), got %g", cl)
	}
	if strings.TrimSpace(c.Analysis.MarketSymbol) == "" {
		return fmt.Errorf("analysis.market_symbol is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be >= 1")
	}
	if c.Queue.RetryLimit < 0 {
		return fmt.Errorf("queue.retry_limit cannot be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	// Zero is replaced by the default, so only all (-1) and leader (1) remain.
	if a := c.Kafka.RequiredAcks; a != -1 && a != 1 {
		return fmt.Errorf("kafka.required_acks must be -1 or 1, got %d", a)
	}
	if c.Kafka.MaxAttempts < 1 {
		return fmt.Errorf("kafka.max_attempts must be >= 1")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}
