package troe

import (
	"fmt"
	"io"
	"time"

	"github.com/diwise/troe/internal/pkg/application/query"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	yaml "gopkg.in/yaml.v2"
)

type Tenant struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Schema is the database schema that holds the history of the tenant
	Schema string `yaml:"schema"`
}

func (t Tenant) SchemaName() string {
	if t.Schema != "" {
		return t.Schema
	}
	return "troe_" + t.ID
}

type TemporalConfig struct {
	DefaultInstanceLimit    int                 `yaml:"defaultInstanceLimit"`
	Timezone                string              `yaml:"timezone"`
	QueryTimeout            time.Duration       `yaml:"queryTimeout"`
	MaxConcurrentAttributes int                 `yaml:"maxConcurrentAttributes"`
	AggregationFailures     query.FailurePolicy `yaml:"aggregationFailures"`
	PurgeAfter              time.Duration       `yaml:"purgeAfter"`
}

// Location returns the time zone that aggregation buckets are aligned in
func (tc TemporalConfig) Location() (*time.Location, error) {
	if tc.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tc.Timezone)
}

type Config struct {
	Tenants  []Tenant       `yaml:"tenants"`
	Temporal TemporalConfig `yaml:"temporal"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, cfg.validate()
}

func (cfg *Config) applyDefaults() {
	t := &cfg.Temporal

	if t.DefaultInstanceLimit <= 0 {
		t.DefaultInstanceLimit = temporal.DefaultInstanceLimit
	}
	if t.QueryTimeout <= 0 {
		t.QueryTimeout = 30 * time.Second
	}
	if t.MaxConcurrentAttributes <= 0 {
		t.MaxConcurrentAttributes = 8
	}
	if t.AggregationFailures == "" {
		t.AggregationFailures = query.SkipFailures
	}
	if t.PurgeAfter <= 0 {
		t.PurgeAfter = 30 * 24 * time.Hour
	}
}

func (cfg *Config) validate() error {
	if _, err := cfg.Temporal.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Temporal.Timezone, err)
	}

	switch cfg.Temporal.AggregationFailures {
	case query.SkipFailures, query.FailOnError:
	default:
		return fmt.Errorf("invalid aggregation failure policy %q", cfg.Temporal.AggregationFailures)
	}

	seen := map[string]bool{}
	for _, t := range cfg.Tenants {
		if t.ID == "" {
			return fmt.Errorf("tenant without id")
		}
		if seen[t.ID] {
			return fmt.Errorf("tenant %s is configured more than once", t.ID)
		}
		seen[t.ID] = true
	}

	return nil
}
