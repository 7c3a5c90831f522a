// Package config loads ETL settings from a YAML file, CLIMATE_* environment
// variables, and command line flags, in rising priority.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

const envPrefix = "CLIMATE_"

// Config holds all ETL settings.
type Config struct {
	// Input export file and how to read it.
	Input    string   `koanf:"input"`
	Encoding string   `koanf:"encoding"`
	Required []string `koanf:"required"`

	// Product delivery.
	OutputDir  string `koanf:"output_dir"`
	Console    bool   `koanf:"console"`
	CSV        bool   `koanf:"csv"`
	SQLite     bool   `koanf:"sqlite"`
	SQLitePath string `koanf:"sqlite_path"`

	// Report content.
	Aggregates []AggregateConfig `koanf:"aggregates"`
	Rankings   []RankingConfig   `koanf:"rankings"`
	TopN       int               `koanf:"top_n"`

	// Wave detection.
	WaveVariable   string  `koanf:"wave_variable"`
	HeatPercentile float64 `koanf:"heat_percentile"`
	ColdPercentile float64 `koanf:"cold_percentile"`
	MinRun         int     `koanf:"min_run"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Metrics MetricsConfig `koanf:"metrics"`
}

// AggregateConfig names one daily/monthly aggregate column.
type AggregateConfig struct {
	Variable string `koanf:"variable"`
	Reducer  string `koanf:"reducer"`
}

// RankingConfig names one top-N report section.
type RankingConfig struct {
	Title     string `koanf:"title"`
	Variable  string `koanf:"variable"`
	Reducer   string `koanf:"reducer"`
	Direction string `koanf:"direction"`
}

// MetricsConfig controls metrics delivery. Pushing is off while the URL is
// empty.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
}

// Load reads configuration with precedence flags > env > file > defaults.
// When path is empty, climate.yaml or climate.yml in the working directory
// is used if present.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path = findConfigFile(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// CLIMATE_LOG_LEVEL -> log_level; a double underscore nests, so
	// CLIMATE_METRICS__PUSHGATEWAY_URL -> metrics.pushgateway_url.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"encoding":        "latin1",
		"output_dir":      "out",
		"console":         true,
		"csv":             true,
		"sqlite":          false,
		"sqlite_path":     "climate.db",
		"top_n":           10,
		"wave_variable":   string(domain.VarTemperature),
		"heat_percentile": float64(domain.DefaultHeatPercentile),
		"cold_percentile": float64(domain.DefaultColdPercentile),
		"min_run":         domain.DefaultMinRun,
		"log_level":       "info",
		"log_format":      "text",
	}
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"climate.yaml", "climate.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ApplyDefaults fills the list-valued settings that the layered providers
// cannot default cleanly.
func (c *Config) ApplyDefaults() {
	if len(c.Required) == 0 {
		c.Required = []string{
			string(domain.VarTemperature),
			string(domain.VarPrecipitation),
		}
	}
	if len(c.Aggregates) == 0 {
		c.Aggregates = []AggregateConfig{
			{Variable: string(domain.VarTemperature), Reducer: string(domain.ReduceMean)},
			{Variable: string(domain.VarTemperature), Reducer: string(domain.ReduceMin)},
			{Variable: string(domain.VarTemperature), Reducer: string(domain.ReduceMax)},
			{Variable: string(domain.VarPrecipitation), Reducer: string(domain.ReduceSum)},
			{Variable: string(domain.VarHumidity), Reducer: string(domain.ReduceMean)},
		}
	}
	if len(c.Rankings) == 0 {
		c.Rankings = []RankingConfig{
			{
				Title:     "hottest days",
				Variable:  string(domain.VarTemperature),
				Reducer:   string(domain.ReduceMax),
				Direction: string(domain.RankLargest),
			},
			{
				Title:     "heaviest precipitation days",
				Variable:  string(domain.VarPrecipitation),
				Reducer:   string(domain.ReduceSum),
				Direction: string(domain.RankLargest),
			},
		}
	}
}

// Validate reports the first offending setting by name.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input is required")
	}
	if c.Encoding != "latin1" && c.Encoding != "utf8" {
		return fmt.Errorf("encoding must be latin1 or utf8, got %q", c.Encoding)
	}
	for _, v := range c.Required {
		if _, ok := domain.CanonicalVariable(v); !ok {
			return fmt.Errorf("required variable %q is not in the catalog", v)
		}
	}
	if c.SQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required when sqlite is enabled")
	}
	for _, a := range c.Aggregates {
		if _, ok := domain.CanonicalVariable(a.Variable); !ok {
			return fmt.Errorf("aggregate variable %q is not in the catalog", a.Variable)
		}
		if err := validReducer(a.Reducer); err != nil {
			return fmt.Errorf("aggregate for %s: %w", a.Variable, err)
		}
	}
	for _, r := range c.Rankings {
		if r.Title == "" {
			return fmt.Errorf("ranking title is required")
		}
		if _, ok := domain.CanonicalVariable(r.Variable); !ok {
			return fmt.Errorf("ranking variable %q is not in the catalog", r.Variable)
		}
		if err := validReducer(r.Reducer); err != nil {
			return fmt.Errorf("ranking %q: %w", r.Title, err)
		}
		if d := domain.RankDirection(r.Direction); d != domain.RankLargest && d != domain.RankSmallest {
			return fmt.Errorf("ranking %q: direction must be largest or smallest, got %q", r.Title, r.Direction)
		}
	}
	if c.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", c.TopN)
	}
	if _, ok := domain.CanonicalVariable(c.WaveVariable); !ok {
		return fmt.Errorf("wave_variable %q is not in the catalog", c.WaveVariable)
	}
	if c.HeatPercentile <= 0 || c.HeatPercentile >= 100 {
		return fmt.Errorf("heat_percentile must be between 0 and 100 exclusive, got %v", c.HeatPercentile)
	}
	if c.ColdPercentile <= 0 || c.ColdPercentile >= 100 {
		return fmt.Errorf("cold_percentile must be between 0 and 100 exclusive, got %v", c.ColdPercentile)
	}
	if c.MinRun < 1 {
		return fmt.Errorf("min_run must be at least 1, got %d", c.MinRun)
	}
	return nil
}

func validReducer(s string) error {
	switch domain.Reducer(s) {
	case domain.ReduceSum, domain.ReduceMean, domain.ReduceMin, domain.ReduceMax:
		return nil
	default:
		return fmt.Errorf("reducer must be one of sum, mean, min, max, got %q", s)
	}
}

// RequiredVariables returns the ids ingestion must find, aliases collapsed
// to their catalog form.
func (c *Config) RequiredVariables() []domain.VariableID {
	vars := make([]domain.VariableID, 0, len(c.Required))
	for _, v := range c.Required {
		vars = append(vars, domain.ResolveVariable(v))
	}
	return vars
}

// Params assembles the pipeline parameters from the validated settings.
// Variable names pass through ResolveVariable so an alias in the config
// reaches the pipeline as the id ingestion stores values under.
func (c *Config) Params() pipeline.Params {
	p := pipeline.Params{
		Source:       c.Input,
		TopN:         c.TopN,
		WaveVariable: domain.ResolveVariable(c.WaveVariable),
		Heat: domain.DetectorParams{
			Percentile: c.HeatPercentile,
			MinRun:     c.MinRun,
		},
		Cold: domain.DetectorParams{
			Percentile: c.ColdPercentile,
			MinRun:     c.MinRun,
		},
	}
	for _, a := range c.Aggregates {
		p.Aggregates = append(p.Aggregates, pipeline.AggregateRequest{
			Variable: domain.ResolveVariable(a.Variable),
			Reducer:  domain.Reducer(a.Reducer),
		})
	}
	for _, r := range c.Rankings {
		p.Rankings = append(p.Rankings, pipeline.RankingRequest{
			Title:     r.Title,
			Variable:  domain.ResolveVariable(r.Variable),
			Reducer:   domain.Reducer(r.Reducer),
			Direction: domain.RankDirection(r.Direction),
		})
	}
	return p
}
