package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hibiken/asynq"
)

type Config struct {
	API       APIConfig       `envPrefix:"MEMORYFLOW_API_"`
	Queue     QueueConfig
	Worker    WorkerConfig    `envPrefix:"WORKER_"`
	Storage   StorageConfig
	Database  DatabaseConfig
	Tracing   TracingConfig   `envPrefix:"OTEL_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Image     ImageConfig     `envPrefix:"IMAGE_"`
	Upload    UploadConfig    `envPrefix:"UPLOAD_"`
	Wizard    WizardConfig    `envPrefix:"WIZARD_"`
}

type APIConfig struct {
	Addr           string `env:"ADDR" envDefault:":8080"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	SigningSecret  string `env:"SIGNING_SECRET"`
}

type QueueConfig struct {
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	Name          string `env:"ASYNC_QUEUE" envDefault:"default"`
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency   int    `env:"CONCURRENCY"`
	MaxActiveJobs int    `env:"MAX_ACTIVE_JOBS"`
	MetricsAddr   string `env:"METRICS_ADDR" envDefault:":9091"`
}

type StorageConfig struct {
	Driver    string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalDir  string `env:"STORAGE_LOCAL_DIR" envDefault:"./.memoryflow-data"`
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"memoryflow"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type DatabaseConfig struct {
	// Empty keeps memories in process memory.
	DSN string `env:"POSTGRES_DSN"`
}

type TracingConfig struct {
	ServiceName  string `env:"SERVICE_NAME" envDefault:"memoryflow"`
	Exporter     string `env:"TRACES_EXPORTER" envDefault:"none"`
	OTLPEndpoint string `env:"EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"EXPORTER_OTLP_INSECURE" envDefault:"false"`
}

type RateLimitConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"false"`
	Capacity int           `env:"CAPACITY" envDefault:"10"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

type ImageConfig struct {
	MaxLongSide       int     `env:"MAX_LONG_SIDE" envDefault:"1800"`
	Quality           float64 `env:"QUALITY" envDefault:"0.85"`
	ThumbnailLongSide int     `env:"THUMBNAIL_LONG_SIDE" envDefault:"480"`
}

// UploadConfig is the wizard's view of the remote upload endpoint.
type UploadConfig struct {
	Endpoint      string        `env:"ENDPOINT" envDefault:"http://localhost:8080/v1/memories"`
	SigningSecret string        `env:"SIGNING_SECRET"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

type WizardConfig struct {
	Addr         string        `env:"ADDR" envDefault:":8090"`
	DotsInterval time.Duration `env:"DOTS_INTERVAL" envDefault:"500ms"`
	MinDuration  time.Duration `env:"MIN_DURATION" envDefault:"5s"`
	SwapDelay    time.Duration `env:"SWAP_DELAY" envDefault:"700ms"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = max(2, runtime.NumCPU())
	}
	if cfg.Worker.MaxActiveJobs <= 0 {
		cfg.Worker.MaxActiveJobs = max(1, runtime.NumCPU()/2)
	}
	if cfg.Image.Quality <= 0 || cfg.Image.Quality > 1 {
		return Config{}, fmt.Errorf("IMAGE_QUALITY must be in (0, 1], got %v", cfg.Image.Quality)
	}
	if cfg.Image.MaxLongSide <= 0 {
		return Config{}, fmt.Errorf("IMAGE_MAX_LONG_SIDE must be positive, got %d", cfg.Image.MaxLongSide)
	}
	return cfg, nil
}
