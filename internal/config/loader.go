package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the application configuration, then fills in
// defaults for anything left unset.
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("load config: read %q: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("load config: parse yaml: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("load config: validate: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Notify.MaxKm < cfg.Notify.MinKm {
		return AppConfig{}, fmt.Errorf(
			"load config: notify.maxKm (%v) must be >= notify.minKm (%v)",
			cfg.Notify.MaxKm, cfg.Notify.MinKm,
		)
	}

	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Reconciler.ReconcileIntervalMS == 0 {
		cfg.Reconciler.ReconcileIntervalMS = 15000
	}
	if cfg.Reconciler.DebounceDelayMS == 0 {
		cfg.Reconciler.DebounceDelayMS = 1000
	}
	if cfg.Reconciler.MovementGateMeters == 0 {
		cfg.Reconciler.MovementGateMeters = 5
	}
	if cfg.Reconciler.BatchSize == 0 {
		cfg.Reconciler.BatchSize = 3
	}
	if cfg.Reconciler.InterBatchDelayMS == 0 {
		cfg.Reconciler.InterBatchDelayMS = 100
	}
	if cfg.Notify.MinKm == 0 {
		cfg.Notify.MinKm = 4
	}
	if cfg.Notify.MaxKm == 0 {
		cfg.Notify.MaxKm = 5
	}
	if cfg.Health.CheckIntervalMS == 0 {
		cfg.Health.CheckIntervalMS = 30000
	}
	if cfg.Health.MaxStreamAgeMS == 0 {
		cfg.Health.MaxStreamAgeMS = 120000
	}
	if cfg.Health.ResubscribeDelayMS == 0 {
		cfg.Health.ResubscribeDelayMS = 2000
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 600
	}
}
