package sweep

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Params bundles the environment-dependent constants a Builder is
// constructed with. Predefined values exist for mainnet and testnet.
type Params struct {
	// Name identifies the environment.
	Name string

	// Net selects the address and script encoding domain.
	Net *chaincfg.Params

	// MinAggregate is the minimum total deposit value, in satoshis, before
	// a sweep may be built.
	MinAggregate uint64

	// MinOutputValue is both the floor the sweep output must stay above
	// after fee deduction and the fixed value of the contributor tag
	// output, in satoshis.
	MinOutputValue uint64

	// TokensPerBTC is the campaign conversion ratio: tokens credited per
	// whole bitcoin swept.
	TokensPerBTC uint64

	// DestinationAddress is the campaign sweep destination for this
	// environment. Deployments set it once; Build still takes the
	// destination explicitly so tests can derive their own.
	DestinationAddress string
}

// Predefined campaign environments.
var (
	MainNet = Params{
		Name:           "mainnet",
		Net:            &chaincfg.MainNetParams,
		MinAggregate:   1000000,
		MinOutputValue: 1000,
		TokensPerBTC:   2000,
	}

	TestNet = Params{
		Name:           "testnet",
		Net:            &chaincfg.TestNet3Params,
		MinAggregate:   60000,
		MinOutputValue: 1000,
		TokensPerBTC:   2000,
	}
)

// predefined maps environment names to their params.
var predefined = map[string]*Params{
	"mainnet": &MainNet,
	"testnet": &TestNet,
}

// ParamsForNetwork returns a predefined environment by name.
// Unknown names return ErrBadParams.
func ParamsForNetwork(name string) (*Params, error) {
	if p, ok := predefined[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: unknown network %q", ErrBadParams, name)
}

// Validate reports whether the params are complete enough to build with.
func (p Params) Validate() error {
	if p.Net == nil {
		return fmt.Errorf("%w: nil chain params", ErrBadParams)
	}
	if p.MinAggregate == 0 {
		return fmt.Errorf("%w: zero minimum aggregate", ErrBadParams)
	}
	if p.MinOutputValue == 0 {
		return fmt.Errorf("%w: zero minimum output value", ErrBadParams)
	}
	if p.TokensPerBTC == 0 {
		return fmt.Errorf("%w: zero token ratio", ErrBadParams)
	}
	return nil
}
