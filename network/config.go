package network

import (
	"fmt"
	"time"
)

// Defaults applied when neither preset, environment, nor caller sets a value.
const (
	// DefaultTimeout bounds each explorer request.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxFeeRate is the sanity ceiling for explorer fee estimates in
	// satoshis per byte. Estimates above it are treated as unavailable
	// rather than passed to the Builder.
	DefaultMaxFeeRate = 1000.0
)

// Config holds the connection parameters for a chain explorer API.
type Config struct {
	BaseURL    string        `json:"base_url"`
	Network    string        `json:"network"`
	Timeout    time.Duration `json:"timeout"`
	MaxFeeRate float64       `json:"max_fee_rate"`
}

// ExplorerPresets contains default explorer endpoints for known networks.
var ExplorerPresets = map[string]Config{
	"mainnet": {BaseURL: "https://insight.bitpay.com/api"},
	"testnet": {BaseURL: "https://test-insight.bitpay.com/api"},
}

// ResolveConfig merges explorer configuration from three sources with
// decreasing priority:
//  1. caller overrides (highest priority)
//  2. environment variables (FUNDRAISER_EXPLORER_URL, FUNDRAISER_EXPLORER_TIMEOUT)
//  3. network presets (lowest priority)
//
// Networks without a preset require an explicit URL from one of the other
// two sources.
func ResolveConfig(overrides *Config, env map[string]string, network string) (*Config, error) {
	result := Config{Network: network}

	// Layer 1: start with preset defaults if available.
	if preset, ok := ExplorerPresets[network]; ok {
		result = preset
		result.Network = network
	}

	// Layer 2: environment variables override preset defaults.
	if env != nil {
		if v, ok := env["FUNDRAISER_EXPLORER_URL"]; ok && v != "" {
			result.BaseURL = v
		}
		if v, ok := env["FUNDRAISER_EXPLORER_TIMEOUT"]; ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("network: bad FUNDRAISER_EXPLORER_TIMEOUT %q: %w", v, err)
			}
			result.Timeout = d
		}
	}

	// Layer 3: caller overrides have highest priority.
	if overrides != nil {
		if overrides.BaseURL != "" {
			result.BaseURL = overrides.BaseURL
		}
		if overrides.Timeout != 0 {
			result.Timeout = overrides.Timeout
		}
		if overrides.MaxFeeRate != 0 {
			result.MaxFeeRate = overrides.MaxFeeRate
		}
	}

	if result.Timeout == 0 {
		result.Timeout = DefaultTimeout
	}
	if result.MaxFeeRate == 0 {
		result.MaxFeeRate = DefaultMaxFeeRate
	}
	if result.BaseURL == "" {
		return nil, fmt.Errorf("network: %s requires explicit explorer configuration (set FUNDRAISER_EXPLORER_URL or pass a Config)", network)
	}

	return &result, nil
}
