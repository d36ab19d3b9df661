package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	admission := map[string]any{}
	if includeZero || cfg.Admission.Concurrency != 0 {
		admission["concurrency"] = cfg.Admission.Concurrency
	}
	if includeZero || cfg.Admission.Backlog != 0 {
		admission["backlog"] = cfg.Admission.Backlog
	}
	if len(admission) > 0 {
		layer["admission"] = admission
	}

	ingress := map[string]any{}
	if includeZero || cfg.Ingress.Enabled {
		ingress["enabled"] = cfg.Ingress.Enabled
	}
	if includeZero || strings.TrimSpace(cfg.Ingress.HTTPAddr) != "" {
		ingress["http_addr"] = cfg.Ingress.HTTPAddr
	}
	if includeZero || strings.TrimSpace(cfg.Ingress.HTTPSAddr) != "" {
		ingress["https_addr"] = cfg.Ingress.HTTPSAddr
	}
	if includeZero || strings.TrimSpace(cfg.Ingress.TLSDir) != "" {
		ingress["tls_dir"] = cfg.Ingress.TLSDir
	}
	if includeZero || cfg.Ingress.PendingMaxAgeSeconds != 0 {
		ingress["pending_max_age_seconds"] = cfg.Ingress.PendingMaxAgeSeconds
	}
	if len(ingress) > 0 {
		layer["ingress"] = ingress
	}

	manifest := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Manifest.UserAgent) != "" {
		manifest["user_agent"] = cfg.Manifest.UserAgent
	}
	if includeZero || cfg.Manifest.MaxRedirects != 0 {
		manifest["max_redirects"] = cfg.Manifest.MaxRedirects
	}
	if includeZero || cfg.Manifest.MaxBodyBytes != 0 {
		manifest["max_body_bytes"] = cfg.Manifest.MaxBodyBytes
	}
	if len(manifest) > 0 {
		layer["manifest"] = manifest
	}

	storage := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Storage.Driver) != "" {
		storage["driver"] = cfg.Storage.Driver
	}
	if includeZero || strings.TrimSpace(cfg.Storage.DSN) != "" {
		storage["dsn"] = cfg.Storage.DSN
	}
	if len(storage) > 0 {
		layer["storage"] = storage
	}

	retention := map[string]any{}
	if includeZero || cfg.Retention.CallLogDays != 0 {
		retention["call_log_days"] = cfg.Retention.CallLogDays
	}
	if len(retention) > 0 {
		layer["retention"] = retention
	}

	jobs := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Jobs.SweepSchedule) != "" {
		jobs["sweep_schedule"] = cfg.Jobs.SweepSchedule
	}
	if includeZero || strings.TrimSpace(cfg.Jobs.PruneSchedule) != "" {
		jobs["prune_schedule"] = cfg.Jobs.PruneSchedule
	}
	if len(jobs) > 0 {
		layer["jobs"] = jobs
	}

	return layer
}
