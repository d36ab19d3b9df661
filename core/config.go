package core

import (
	"fmt"
	"strings"
)

type AdmissionConfig struct {
	Concurrency int `koanf:"concurrency" mapstructure:"concurrency"`
	Backlog     int `koanf:"backlog" mapstructure:"backlog"`
}

type IngressConfig struct {
	Enabled              bool   `koanf:"enabled" mapstructure:"enabled"`
	HTTPAddr             string `koanf:"http_addr" mapstructure:"http_addr"`
	HTTPSAddr            string `koanf:"https_addr" mapstructure:"https_addr"`
	TLSDir               string `koanf:"tls_dir" mapstructure:"tls_dir"`
	PendingMaxAgeSeconds int    `koanf:"pending_max_age_seconds" mapstructure:"pending_max_age_seconds"`
}

type ManifestConfig struct {
	UserAgent    string `koanf:"user_agent" mapstructure:"user_agent"`
	MaxRedirects int    `koanf:"max_redirects" mapstructure:"max_redirects"`
	MaxBodyBytes int64  `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
}

type StorageConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

type RetentionConfig struct {
	CallLogDays int `koanf:"call_log_days" mapstructure:"call_log_days"`
}

type JobsConfig struct {
	SweepSchedule string `koanf:"sweep_schedule" mapstructure:"sweep_schedule"`
	PruneSchedule string `koanf:"prune_schedule" mapstructure:"prune_schedule"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Admission   AdmissionConfig `koanf:"admission" mapstructure:"admission"`
	Ingress     IngressConfig   `koanf:"ingress" mapstructure:"ingress"`
	Manifest    ManifestConfig  `koanf:"manifest" mapstructure:"manifest"`
	Storage     StorageConfig   `koanf:"storage" mapstructure:"storage"`
	Retention   RetentionConfig `koanf:"retention" mapstructure:"retention"`
	Jobs        JobsConfig      `koanf:"jobs" mapstructure:"jobs"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "bridge",
		Admission: AdmissionConfig{
			Concurrency: 8,
			Backlog:     256,
		},
		Ingress: IngressConfig{
			Enabled:              true,
			HTTPAddr:             "127.0.0.1:3321",
			HTTPSAddr:            "127.0.0.1:2121",
			PendingMaxAgeSeconds: 120,
		},
		Manifest: ManifestConfig{
			UserAgent:    "go-wallet-bridge/1.0",
			MaxRedirects: 5,
			MaxBodyBytes: 1 << 20,
		},
		Retention: RetentionConfig{
			CallLogDays: 30,
		},
		Jobs: JobsConfig{
			SweepSchedule: "@every 1m",
			PruneSchedule: "@daily",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Admission.Concurrency < 1 {
		return fmt.Errorf("core: admission.concurrency must be >= 1")
	}
	if c.Admission.Backlog < 0 {
		return fmt.Errorf("core: admission.backlog must be >= 0")
	}
	if c.Ingress.Enabled && strings.TrimSpace(c.Ingress.HTTPAddr) == "" {
		return fmt.Errorf("core: ingress.http_addr is required when ingress is enabled")
	}
	if c.Ingress.PendingMaxAgeSeconds < 0 {
		return fmt.Errorf("core: ingress.pending_max_age_seconds must be >= 0")
	}
	if c.Manifest.MaxRedirects < 0 {
		return fmt.Errorf("core: manifest.max_redirects must be >= 0")
	}
	if c.Manifest.MaxBodyBytes <= 0 {
		return fmt.Errorf("core: manifest.max_body_bytes must be > 0")
	}
	switch strings.TrimSpace(strings.ToLower(c.Storage.Driver)) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("core: storage.driver must be sqlite, postgres, or empty")
	}
	if strings.TrimSpace(c.Storage.Driver) != "" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("core: storage.dsn is required when storage.driver is set")
	}
	if c.Retention.CallLogDays < 0 {
		return fmt.Errorf("core: retention.call_log_days must be >= 0")
	}
	return nil
}
