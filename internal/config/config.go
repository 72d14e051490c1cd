package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Mailbox MailboxConfig `mapstructure:"mailbox"`
	Intake  IntakeConfig  `mapstructure:"intake"`
	Storage StorageConfig `mapstructure:"storage"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// MailboxConfig holds IMAP mailbox connection configuration.
type MailboxConfig struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	Username           string   `mapstructure:"username"`
	Password           string   `mapstructure:"password"`
	UseTLS             bool     `mapstructure:"use_tls"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Inbox              string   `mapstructure:"inbox"`
	Folders            []string `mapstructure:"folders"`
}

// IntakeConfig holds pipeline-level configuration.
type IntakeConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	LockPort     int           `mapstructure:"lock_port"`
	FromFallback string        `mapstructure:"from_fallback"`
}

// StorageConfig holds document store configuration.
type StorageConfig struct {
	Type       string `mapstructure:"type"` // "local" or "s3"
	Path       string `mapstructure:"path"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Region   string `mapstructure:"s3_region"`
}

// FetchConfig holds remote document fetch configuration.
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// LedgerConfig holds intake ledger configuration.
type LedgerConfig struct {
	Type           string        `mapstructure:"type"` // "postgres", "sqlite", or "none"
	URL            string        `mapstructure:"url"`
	Path           string        `mapstructure:"path"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// QueueConfig holds dispatch queue configuration.
type QueueConfig struct {
	Type          string `mapstructure:"type"` // "redis", "sqs", or "none"
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Stream        string `mapstructure:"stream"`
	SQSQueueURL   string `mapstructure:"sqs_queue_url"`
	SQSRegion     string `mapstructure:"sqs_region"`
}

// AdminConfig holds the operational HTTP endpoint configuration.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // "stdout" or "file"
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix MAIL_INTAKE_ override file values.
// For example, MAIL_INTAKE_MAILBOX_PASSWORD overrides mailbox.password.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("MAIL_INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for every key so that environment-only
// overrides are visible to Unmarshal even when the key is absent from the
// config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mailbox.host", "")
	v.SetDefault("mailbox.port", 993)
	v.SetDefault("mailbox.username", "")
	v.SetDefault("mailbox.password", "")
	v.SetDefault("mailbox.use_tls", true)
	v.SetDefault("mailbox.insecure_skip_verify", false)
	v.SetDefault("mailbox.inbox", "INBOX")
	v.SetDefault("mailbox.folders", []string{})

	v.SetDefault("intake.poll_interval", 5*time.Minute)
	v.SetDefault("intake.lock_port", 9444)
	v.SetDefault("intake.from_fallback", "unknown-sender")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./documents")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_region", "")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_bytes", int64(32<<20))
	v.SetDefault("fetch.user_agent", "mail-intake/1.0")

	v.SetDefault("ledger.type", "none")
	v.SetDefault("ledger.url", "")
	v.SetDefault("ledger.path", "")
	v.SetDefault("ledger.pool_min", 2)
	v.SetDefault("ledger.pool_max", 10)
	v.SetDefault("ledger.connect_timeout", 5*time.Second)

	v.SetDefault("queue.type", "none")
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_password", "")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.stream", "intake:documents")
	v.SetDefault("queue.sqs_queue_url", "")
	v.SetDefault("queue.sqs_region", "")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 9180)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_files", 5)
}

// Validate checks that the configuration is internally consistent and that
// required fields for the selected backends are present.
func (c *Config) Validate() error {
	if c.Mailbox.Host == "" {
		return fmt.Errorf("mailbox.host is required")
	}
	if c.Mailbox.Username == "" {
		return fmt.Errorf("mailbox.username is required")
	}
	if c.Mailbox.Password == "" {
		return fmt.Errorf("mailbox.password is required")
	}
	if c.Intake.PollInterval <= 0 {
		return fmt.Errorf("intake.poll_interval must be positive")
	}

	switch c.Storage.Type {
	case "local", "":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for local storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage.type: %s", c.Storage.Type)
	}

	switch c.Ledger.Type {
	case "none", "":
	case "postgres":
		if c.Ledger.URL == "" {
			return fmt.Errorf("ledger.url is required for postgres ledger")
		}
	case "sqlite":
		if c.Ledger.Path == "" {
			return fmt.Errorf("ledger.path is required for sqlite ledger")
		}
	default:
		return fmt.Errorf("unknown ledger.type: %s", c.Ledger.Type)
	}

	switch c.Queue.Type {
	case "none", "":
	case "redis":
		if c.Queue.RedisAddr == "" {
			return fmt.Errorf("queue.redis_addr is required for redis queue")
		}
	case "sqs":
		if c.Queue.SQSQueueURL == "" {
			return fmt.Errorf("queue.sqs_queue_url is required for sqs queue")
		}
	default:
		return fmt.Errorf("unknown queue.type: %s", c.Queue.Type)
	}

	return nil
}
