package config

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// ReconcilerConfig contains reconciliation loop tunables. Durations are in
// milliseconds; zero means "use the built-in default".
type ReconcilerConfig struct {
	ReconcileIntervalMS int     `yaml:"reconcileIntervalMS" validate:"gte=0"`
	DebounceDelayMS     int     `yaml:"debounceDelayMS" validate:"gte=0"`
	MovementGateMeters  float64 `yaml:"movementGateMeters" validate:"gte=0"`
	BatchSize           int     `yaml:"batchSize" validate:"gte=0,lte=25"`
	InterBatchDelayMS   int     `yaml:"interBatchDelayMS" validate:"gte=0"`
}

// NotifyConfig contains the proximity notification window.
type NotifyConfig struct {
	MinKm    float64 `yaml:"minKm" validate:"gte=0"`
	MaxKm    float64 `yaml:"maxKm" validate:"gte=0"`
	Endpoint string  `yaml:"endpoint" validate:"omitempty,url"`
}

// HealthConfig contains subscription staleness recovery settings.
type HealthConfig struct {
	CheckIntervalMS    int `yaml:"checkIntervalMS" validate:"gte=0"`
	MaxStreamAgeMS     int `yaml:"maxStreamAgeMS" validate:"gte=0"`
	ResubscribeDelayMS int `yaml:"resubscribeDelayMS" validate:"gte=0"`
}

// RoutingConfig contains the directions provider endpoint.
type RoutingConfig struct {
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
}

// RealtimeConfig contains the realtime backend endpoint.
type RealtimeConfig struct {
	URL string `yaml:"url" validate:"required"`
}

// CacheConfig contains route snapshot cache settings.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttlSeconds" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server" validate:"required"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Notify     NotifyConfig     `yaml:"notify"`
	Health     HealthConfig     `yaml:"health"`
	Routing    RoutingConfig    `yaml:"routing"`
	Realtime   RealtimeConfig   `yaml:"realtime" validate:"required"`
	Cache      CacheConfig      `yaml:"cache"`
}
