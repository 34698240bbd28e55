// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a file-backed configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := Load(ctx, opts)
	return cfg, err
}

// Static returns a Provider that always yields cfg.
func Static(cfg *Config) Provider {
	return staticProvider{cfg: cfg}
}

type staticProvider struct{ cfg *Config }

func (p staticProvider) Load(context.Context, LoadOptions) (*Config, error) {
	return p.cfg, nil
}
