package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for both binaries.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	KafkaBrokers      []string
	KafkaFailureTopic string

	PublicBaseURL string
	StorageRoot   string

	CapabilityTTL    time.Duration
	CapabilitySecret string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	QueueMaxAttempts  int
	QueueBackoffBase  time.Duration
	QueuePollInterval time.Duration
	QueueClaimTTL     time.Duration
	QueueBatchSize    int

	ScanBaseURL      string
	ScanAPIKey       string
	ScanPollInterval time.Duration
	ScanPollAttempts int
	ScanWorkers      int

	MailWorkers  int
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		FailureTopic string   `yaml:"failure_topic"`
	} `yaml:"dependencies"`
	Server struct {
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"server"`
	Storage struct {
		Root string `yaml:"root"`
	} `yaml:"storage"`
	Capability struct {
		TTLSeconds    int    `yaml:"ttl_seconds"`
		SigningSecret string `yaml:"signing_secret"`
	} `yaml:"capability"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int    `yaml:"token_ttl_hours"`
		BcryptCost    int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Queue struct {
		MaxAttempts         int `yaml:"max_attempts"`
		BackoffBaseSeconds  int `yaml:"backoff_base_seconds"`
		PollIntervalSeconds int `yaml:"poll_interval_seconds"`
		ClaimTTLSeconds     int `yaml:"claim_ttl_seconds"`
		BatchSize           int `yaml:"batch_size"`
	} `yaml:"queue"`
	Scan struct {
		BaseURL             string `yaml:"base_url"`
		APIKey              string `yaml:"api_key"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		PollAttempts        int    `yaml:"poll_attempts"`
		Workers             int    `yaml:"workers"`
	} `yaml:"scan"`
	Mail struct {
		Workers  int    `yaml:"workers"`
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort int    `yaml:"smtp_port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"mail"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:         "mini-s3-bucket",
		HTTPPort:          8080,
		GRPCPort:          9090,
		MaxDBConns:        20,
		KafkaFailureTopic: "bucket.job.failures",
		PublicBaseURL:     "http://localhost:8080",
		StorageRoot:       "uploads",
		CapabilityTTL:     5 * time.Minute,
		TokenTTL:          48 * time.Hour,
		BcryptCost:        10,
		QueueMaxAttempts:  4,
		QueueBackoffBase:  5 * time.Second,
		QueuePollInterval: 2 * time.Second,
		QueueClaimTTL:     30 * time.Second,
		QueueBatchSize:    16,
		ScanBaseURL:       "https://www.virustotal.com/api/v3",
		ScanPollInterval:  3 * time.Second,
		ScanPollAttempts:  20,
		ScanWorkers:       4,
		MailWorkers:       2,
		SMTPPort:          587,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.FailureTopic != "" {
			cfg.KafkaFailureTopic = f.Dependencies.FailureTopic
		}
		if f.Server.PublicBaseURL != "" {
			cfg.PublicBaseURL = f.Server.PublicBaseURL
		}
		if f.Storage.Root != "" {
			cfg.StorageRoot = f.Storage.Root
		}
		if f.Capability.TTLSeconds > 0 {
			cfg.CapabilityTTL = time.Duration(f.Capability.TTLSeconds) * time.Second
		}
		if f.Capability.SigningSecret != "" {
			cfg.CapabilitySecret = f.Capability.SigningSecret
		}
		if f.Auth.JWTSecret != "" {
			cfg.JWTSecret = f.Auth.JWTSecret
		}
		if f.Auth.TokenTTLHours > 0 {
			cfg.TokenTTL = time.Duration(f.Auth.TokenTTLHours) * time.Hour
		}
		if f.Auth.BcryptCost > 0 {
			cfg.BcryptCost = f.Auth.BcryptCost
		}
		if f.Queue.MaxAttempts > 0 {
			cfg.QueueMaxAttempts = f.Queue.MaxAttempts
		}
		if f.Queue.BackoffBaseSeconds > 0 {
			cfg.QueueBackoffBase = time.Duration(f.Queue.BackoffBaseSeconds) * time.Second
		}
		if f.Queue.PollIntervalSeconds > 0 {
			cfg.QueuePollInterval = time.Duration(f.Queue.PollIntervalSeconds) * time.Second
		}
		if f.Queue.ClaimTTLSeconds > 0 {
			cfg.QueueClaimTTL = time.Duration(f.Queue.ClaimTTLSeconds) * time.Second
		}
		if f.Queue.BatchSize > 0 {
			cfg.QueueBatchSize = f.Queue.BatchSize
		}
		if f.Scan.BaseURL != "" {
			cfg.ScanBaseURL = f.Scan.BaseURL
		}
		if f.Scan.APIKey != "" {
			cfg.ScanAPIKey = f.Scan.APIKey
		}
		if f.Scan.PollIntervalSeconds > 0 {
			cfg.ScanPollInterval = time.Duration(f.Scan.PollIntervalSeconds) * time.Second
		}
		if f.Scan.PollAttempts > 0 {
			cfg.ScanPollAttempts = f.Scan.PollAttempts
		}
		if f.Scan.Workers > 0 {
			cfg.ScanWorkers = f.Scan.Workers
		}
		if f.Mail.Workers > 0 {
			cfg.MailWorkers = f.Mail.Workers
		}
		if f.Mail.SMTPHost != "" {
			cfg.SMTPHost = f.Mail.SMTPHost
		}
		if f.Mail.SMTPPort > 0 {
			cfg.SMTPPort = f.Mail.SMTPPort
		}
		if f.Mail.Username != "" {
			cfg.SMTPUsername = f.Mail.Username
		}
		if f.Mail.Password != "" {
			cfg.SMTPPassword = f.Mail.Password
		}
		if f.Mail.From != "" {
			cfg.SMTPFrom = f.Mail.From
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaFailureTopic = envOrDefault("KAFKA_FAILURE_TOPIC", cfg.KafkaFailureTopic)
	cfg.PublicBaseURL = strings.TrimRight(envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL), "/")
	cfg.StorageRoot = envOrDefault("STORAGE_ROOT", cfg.StorageRoot)
	cfg.CapabilitySecret = envOrDefault("CAPABILITY_SECRET", envOrDefault("API_SECRET", cfg.CapabilitySecret))
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.ScanAPIKey = envOrDefault("VIRUSTOTAL_API_KEY", cfg.ScanAPIKey)
	cfg.ScanBaseURL = envOrDefault("VIRUSTOTAL_BASE_URL", cfg.ScanBaseURL)
	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPUsername = envOrDefault("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.QueueMaxAttempts = envInt("QUEUE_MAX_ATTEMPTS", cfg.QueueMaxAttempts)
	cfg.QueueBatchSize = envInt("QUEUE_BATCH_SIZE", cfg.QueueBatchSize)
	cfg.ScanPollAttempts = envInt("SCAN_POLL_ATTEMPTS", cfg.ScanPollAttempts)
	cfg.ScanWorkers = envInt("SCAN_WORKERS", cfg.ScanWorkers)
	cfg.MailWorkers = envInt("MAIL_WORKERS", cfg.MailWorkers)

	cfg.CapabilityTTL = time.Duration(envInt("CAPABILITY_TTL_SECONDS", int(cfg.CapabilityTTL.Seconds()))) * time.Second
	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL.Hours()))) * time.Hour
	cfg.QueueBackoffBase = time.Duration(envInt("QUEUE_BACKOFF_BASE_SECONDS", int(cfg.QueueBackoffBase.Seconds()))) * time.Second
	cfg.QueuePollInterval = time.Duration(envInt("QUEUE_POLL_SECONDS", int(cfg.QueuePollInterval.Seconds()))) * time.Second
	cfg.QueueClaimTTL = time.Duration(envInt("QUEUE_CLAIM_TTL_SECONDS", int(cfg.QueueClaimTTL.Seconds()))) * time.Second
	cfg.ScanPollInterval = time.Duration(envInt("SCAN_POLL_SECONDS", int(cfg.ScanPollInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.CapabilitySecret == "" {
		return Config{}, fmt.Errorf("missing CAPABILITY_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
