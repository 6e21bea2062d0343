// Package watcher drives a campaign sweep end to end: it polls the chain
// explorer for deposits at the campaign address and, once the aggregate
// meets the sweep threshold, builds, broadcasts, and records a single sweep
// transaction.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gookit/slog"

	"github.com/sunnya97/fundraiser-lib/campaign"
	"github.com/sunnya97/fundraiser-lib/network"
	"github.com/sunnya97/fundraiser-lib/sweep"
)

// DefaultInterval is the poll interval used when the config leaves it unset.
const DefaultInterval = 10 * time.Second

// Config assembles a Watcher's collaborators.
type Config struct {
	// Service lists deposits, estimates fees, and broadcasts the sweep.
	Service network.ChainService

	// Builder assembles and signs the sweep transaction.
	Builder *sweep.Builder

	// Keys controls the deposit address being watched.
	Keys *sweep.KeyPair

	// Contributor is the campaign-chain identity tagged by the sweep.
	Contributor [20]byte

	// Destination receives the swept funds. Empty falls back to the
	// builder params' destination address.
	Destination string

	// Ledger, when set, records the completed sweep.
	Ledger *campaign.BoltLedger

	// Interval between polls. Zero means DefaultInterval.
	Interval time.Duration

	// Logger for progress reporting. Nil means the package default.
	Logger *slog.Logger
}

// Watcher polls for deposits and performs one sweep. A single Run issues one
// outstanding explorer query at a time and never invokes Build concurrently
// with itself, which keeps one in-flight sweep per key.
type Watcher struct {
	svc         network.ChainService
	builder     *sweep.Builder
	keys        *sweep.KeyPair
	contributor [20]byte
	dest        string
	ledger      *campaign.BoltLedger
	interval    time.Duration
	log         *slog.Logger
}

// Outcome reports a completed sweep.
type Outcome struct {
	// Result is the build that was broadcast.
	Result *sweep.BuildResult

	// BroadcastTxID is the transaction id reported by the explorer.
	BroadcastTxID string

	// Total is the aggregate deposit value the sweep consumed, in satoshis.
	Total uint64
}

// New validates cfg and returns a Watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("%w: chain service", ErrNilParam)
	}
	if cfg.Builder == nil {
		return nil, fmt.Errorf("%w: builder", ErrNilParam)
	}
	if cfg.Keys == nil {
		return nil, fmt.Errorf("%w: key pair", ErrNilParam)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadInterval, cfg.Interval)
	}

	dest := cfg.Destination
	if dest == "" {
		dest = cfg.Builder.Params().DestinationAddress
	}
	if dest == "" {
		return nil, ErrNoDestination
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Std().Logger
	}

	return &Watcher{
		svc:         cfg.Service,
		builder:     cfg.Builder,
		keys:        cfg.Keys,
		contributor: cfg.Contributor,
		dest:        dest,
		ledger:      cfg.Ledger,
		interval:    interval,
		log:         log,
	}, nil
}

// DepositAddress returns the address the watcher polls for deposits.
func (w *Watcher) DepositAddress() string {
	return w.keys.DepositAddress(w.builder.Params().Net.PubKeyHashAddrID)
}

// Run polls at the configured interval until the deposits at the watched
// address fund a sweep, then builds, broadcasts, and records it. Transient
// collaborator failures and fee-exceeds-funds rejections are logged and
// retried on the next tick; configuration-level build failures end the run.
// Run returns the completed sweep, or ctx.Err() once ctx is done.
func (w *Watcher) Run(ctx context.Context) (*Outcome, error) {
	addr := w.DepositAddress()
	params := w.builder.Params()
	w.log.Infof("watching %s on %s for %d sat, polling every %v",
		addr, params.Name, params.MinAggregate, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			outcome, err := w.pollOnce(ctx, addr)
			if err != nil {
				return nil, err
			}
			if outcome != nil {
				return outcome, nil
			}
		}
	}
}

// pollOnce performs one tick: list deposits, check the threshold, then
// build, broadcast, and record. A nil, nil return means try again next tick.
func (w *Watcher) pollOnce(ctx context.Context, addr string) (*Outcome, error) {
	utxos, err := w.svc.ListUnspent(ctx, addr)
	if err != nil {
		w.log.Warnf("list unspent: %v", err)
		return nil, nil
	}

	total := network.TotalAmount(utxos)
	min := w.builder.Params().MinAggregate
	if total < min {
		w.log.Infof("deposits at %d of %d sat across %d outputs", total, min, len(utxos))
		return nil, nil
	}

	rate, err := w.svc.FeeRate(ctx)
	if err != nil {
		w.log.Warnf("fee rate: %v", err)
		return nil, nil
	}

	outs, err := network.ToSpendable(utxos)
	if err != nil {
		w.log.Warnf("convert deposits: %v", err)
		return nil, nil
	}

	res, err := w.builder.Build(w.keys, outs, rate, w.dest, w.contributor)
	switch {
	case errors.Is(err, sweep.ErrFeeExceedsFunds):
		// The rate may drop, or more deposits may arrive.
		w.log.Warnf("sweep deferred: %v", err)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("watcher: build sweep: %w", err)
	}

	txid, err := w.svc.BroadcastTx(ctx, res.Hex())
	if err != nil {
		w.log.Warnf("broadcast: %v", err)
		return nil, nil
	}
	w.log.WithFields(slog.M{
		"txid":  txid,
		"paid":  res.PaidAmount,
		"fee":   res.FeeAmount,
		"total": total,
	}).Info("sweep broadcast")

	if w.ledger != nil {
		rec := &campaign.Record{
			TxID:           txid,
			PaidAmount:     res.PaidAmount,
			FeeAmount:      res.FeeAmount,
			CreditedTokens: res.CreditedTokens,
			Contributor:    w.contributor,
			SweptAt:        time.Now().UTC(),
		}
		if err := w.ledger.Put(rec); err != nil {
			// The sweep is already on the network; a ledger failure must
			// not fail the run.
			w.log.Errorf("record sweep %s: %v", txid, err)
		}
	}

	return &Outcome{Result: res, BroadcastTxID: txid, Total: total}, nil
}
