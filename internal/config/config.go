package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// WorkerConfig controls the worker pool started by cmd/worker.
type WorkerConfig struct {
	Count           int           `env:"WORKER_COUNT,default=10"`
	Queues          []string      `env:"WORKER_QUEUES,default=default"`
	LeaseTimeout    time.Duration `env:"LEASE_TIMEOUT,default=30m"`
	PollInterval    time.Duration `env:"POLL_INTERVAL,default=1s"`
	MaxPollInterval time.Duration `env:"MAX_POLL_INTERVAL,default=1m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL,default=30s"`
	JobExpiration   time.Duration `env:"JOB_EXPIRATION,default=24h"`
	MaxRetries      int           `env:"MAX_RETRIES,default=3"`
}

// APIConfig controls the HTTP server started by cmd/api.
type APIConfig struct {
	Addr           string        `env:"HTTP_ADDR,default=:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadWorkerConfig(ctx context.Context) (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func LoadAPIConfig(ctx context.Context) (*APIConfig, error) {
	var cfg APIConfig
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("config validation failed: HTTP_ADDR is required")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("config validation failed: REQUEST_TIMEOUT must be positive")
	}
	return &cfg, nil
}

func (c *WorkerConfig) Validate() error {
	var errors []string

	if c.Count < 1 {
		errors = append(errors, "WORKER_COUNT must be at least 1")
	}

	queues := c.Queues[:0]
	for _, q := range c.Queues {
		if q = strings.TrimSpace(q); q != "" {
			queues = append(queues, q)
		}
	}
	c.Queues = queues
	if len(c.Queues) == 0 {
		errors = append(errors, "WORKER_QUEUES must name at least one queue")
	}

	if c.LeaseTimeout <= 0 {
		errors = append(errors, "LEASE_TIMEOUT must be positive")
	}
	if c.PollInterval <= 0 {
		errors = append(errors, "POLL_INTERVAL must be positive")
	}
	if c.MaxPollInterval < c.PollInterval {
		errors = append(errors, "MAX_POLL_INTERVAL must not be below POLL_INTERVAL")
	}
	if c.SweepInterval <= 0 {
		errors = append(errors, "SWEEP_INTERVAL must be positive")
	}
	if c.JobExpiration <= 0 {
		errors = append(errors, "JOB_EXPIRATION must be positive")
	}
	if c.MaxRetries < 0 {
		errors = append(errors, "MAX_RETRIES must be non-negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}
