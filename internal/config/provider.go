// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects the config source.
type LoadOptions struct {
	// ConfigFilePath forces a specific file, which must exist.
	ConfigFilePath string
	// ConfigDirPath replaces the platform config directory.
	ConfigDirPath string
}

// Provider loads configuration. The CLI takes one so tests can inject
// settings without touching the filesystem.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type (
	fileProvider struct{}

	staticProvider struct {
		cfg *Config
	}
)

// NewProvider returns a Provider backed by Load.
func NewProvider() Provider {
	return fileProvider{}
}

// NewStaticProvider returns a Provider that always yields cfg.
func NewStaticProvider(cfg *Config) Provider {
	return staticProvider{cfg: cfg}
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := Load(ctx, opts)
	return cfg, err
}

func (p staticProvider) Load(context.Context, LoadOptions) (*Config, error) {
	return p.cfg, nil
}
