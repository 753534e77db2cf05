// Package config loads shabd's TOML configuration. Values from a file are
// overlaid onto Default, so a file only needs the keys it changes.
package config

import (
	"fmt"
	"os"

	"github.com/mgpai22/shabd/internal/optimize"
	"github.com/mgpai22/shabd/internal/subtitle"
	"github.com/mgpai22/shabd/internal/translate"
	"github.com/pelletier/go-toml/v2"
)

// Output controls the written subtitle file.
type Output struct {
	Format   string `toml:"format"`
	Language string `toml:"language"`
}

// Translate configures the optional translation stage. An empty target
// language leaves it off.
type Translate struct {
	Provider       string `toml:"provider"`
	TargetLanguage string `toml:"target_language"`
	Model          string `toml:"model"`
	BatchSize      int    `toml:"batch_size"`
	Concurrency    int    `toml:"concurrency"`
}

// Config is the root of the configuration file.
type Config struct {
	Optimize  optimize.Options `toml:"optimize"`
	Output    Output           `toml:"output"`
	Translate Translate        `toml:"translate"`
}

func Default() Config {
	return Config{
		Optimize: optimize.DefaultOptions(),
		Output: Output{
			Format: string(subtitle.FormatSRT),
		},
		Translate: Translate{
			Provider:    string(translate.ProviderGemini),
			BatchSize:   translate.DefaultBatchSize,
			Concurrency: 3,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults; an
// explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if _, err := subtitle.ParseFormat(cfg.Output.Format); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if translate.APIKeyEnv(translate.Provider(cfg.Translate.Provider)) == "" {
		return nil, fmt.Errorf("config %s: unsupported translation provider %q", path, cfg.Translate.Provider)
	}
	if cfg.Translate.BatchSize <= 0 || cfg.Translate.Concurrency <= 0 {
		return nil, fmt.Errorf("config %s: translate batch_size and concurrency must be positive", path)
	}

	return &cfg, nil
}

// Encode renders cfg as TOML, for printing a starting configuration.
func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
