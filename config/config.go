// Package config loads the planner configuration from a file plus
// environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kmrl/induction/core/rules"
)

// envPrefix marks environment overrides, e.g. K_DEPOT__SERVICE_TARGET=20.
const envPrefix = "K_"

// Depot holds per-depot capacity settings.
type Depot struct {
	Name          string  `koanf:"name"`
	ServiceTarget int     `koanf:"service_target"`
	StandbyMin    int     `koanf:"standby_min"`
	IBLCapacity   int     `koanf:"ibl_capacity"`
	PredictedKm   float64 `koanf:"predicted_km"`
}

// Planner holds scoring weights. Only branding is tunable.
type Planner struct {
	BrandingWeight float64 `koanf:"branding_weight"`
}

// API holds the HTTP listener settings.
type API struct {
	Addr string `koanf:"addr"`
}

// Metrics holds the Prometheus exposition settings.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// Influx holds the InfluxDB telemetry settings.
type Influx struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Token   string `koanf:"token"`
	Org     string `koanf:"org"`
	Bucket  string `koanf:"bucket"`
}

// MQTT holds the withdrawal feed settings.
type MQTT struct {
	Enabled  bool   `koanf:"enabled"`
	Broker   string `koanf:"broker"`
	ClientID string `koanf:"client_id"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Audit holds the decision log settings.
type Audit struct {
	Path string `koanf:"path"`
}

// Config is the full runtime configuration.
type Config struct {
	Depot   Depot   `koanf:"depot"`
	Planner Planner `koanf:"planner"`
	API     API     `koanf:"api"`
	Metrics Metrics `koanf:"metrics"`
	Influx  Influx  `koanf:"influx"`
	MQTT    MQTT    `koanf:"mqtt"`
	Audit   Audit   `koanf:"audit"`
}

// SetDefaults fills unset fields with working values.
func (c *Config) SetDefaults() {
	if c.Depot.Name == "" {
		c.Depot.Name = "Muttom"
	}
	if c.Depot.ServiceTarget == 0 {
		c.Depot.ServiceTarget = rules.DefaultServiceTarget
	}
	if c.Depot.StandbyMin == 0 {
		c.Depot.StandbyMin = rules.DefaultStandbyMin
	}
	if c.Depot.IBLCapacity == 0 {
		c.Depot.IBLCapacity = rules.DefaultIBLCapacity
	}
	if c.Depot.PredictedKm == 0 {
		c.Depot.PredictedKm = rules.DefaultPredictedDayKm
	}
	if c.Planner.BrandingWeight == 0 {
		c.Planner.BrandingWeight = rules.WeightBranding
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "induction-planner"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "data/plan-audit.jsonl"
	}
}

// Validate rejects configurations the planner cannot run with.
func (c *Config) Validate() error {
	if c.Depot.ServiceTarget < 0 || c.Depot.StandbyMin < 0 || c.Depot.IBLCapacity < 0 {
		return fmt.Errorf("config: depot capacities must not be negative")
	}
	if c.Planner.BrandingWeight < rules.BrandingWeightMin || c.Planner.BrandingWeight > rules.BrandingWeightMax {
		return fmt.Errorf("config: branding weight %.1f outside [%.0f, %.0f]",
			c.Planner.BrandingWeight, rules.BrandingWeightMin, rules.BrandingWeightMax)
	}
	if c.Influx.Enabled && c.Influx.URL == "" {
		return fmt.Errorf("config: influx enabled without url")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("config: mqtt enabled without broker")
	}
	return nil
}

// Load reads the file (JSON or YAML by extension), applies K_ environment
// overrides and validates the result. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
