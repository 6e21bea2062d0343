package watcher

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gookit/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnya97/fundraiser-lib/address"
	"github.com/sunnya97/fundraiser-lib/campaign"
	"github.com/sunnya97/fundraiser-lib/network"
	"github.com/sunnya97/fundraiser-lib/sweep"
)

const broadcastTxID = "9d3e0e7ad21abbbd6a452cbcabb6c7c2536a2a43cf7b47a219a16dccdbfd3b44"

// --- test fixtures ---

func testKeys(t *testing.T) *sweep.KeyPair {
	t.Helper()
	kp, err := sweep.NewKeyPair(bytes.Repeat([]byte{0x51}, sweep.PrivKeyLen), true)
	require.NoError(t, err)
	return kp
}

func testBuilder(t *testing.T) *sweep.Builder {
	t.Helper()
	b, err := sweep.NewBuilder(sweep.TestNet)
	require.NoError(t, err)
	return b
}

// depositScriptHex builds the hex P2PKH locking script deposits to kp carry.
func depositScriptHex(t *testing.T, kp *sweep.KeyPair, net *chaincfg.Params) string {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(address.Hash160(kp.PubKeyBytes()), net)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return hex.EncodeToString(script)
}

func depositUTXO(n int, amount uint64, scriptHex string) *network.UTXO {
	return &network.UTXO{
		TxID:         fmt.Sprintf("%064x", n),
		Vout:         0,
		Amount:       amount,
		ScriptPubKey: scriptHex,
	}
}

func testDestination(version byte) string {
	_, pub := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x99}, sweep.PrivKeyLen))
	return address.Derive(pub.SerializeCompressed(), version)
}

func testContributor() [20]byte {
	var contributor [20]byte
	for i := range contributor {
		contributor[i] = 0xc0
	}
	return contributor
}

func tempLedger(t *testing.T) *campaign.BoltLedger {
	t.Helper()
	ledger, err := campaign.OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

// quietLogger returns a logger with no handlers attached.
func quietLogger() *slog.Logger { return slog.New() }

func testConfig(svc network.ChainService, b *sweep.Builder, kp *sweep.KeyPair) Config {
	return Config{
		Service:     svc,
		Builder:     b,
		Keys:        kp,
		Contributor: testContributor(),
		Destination: testDestination(address.TestNetVersion),
		Interval:    time.Millisecond,
		Logger:      quietLogger(),
	}
}

func runCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// --- Run tests ---

func TestWatcherSweepsWhenThresholdMet(t *testing.T) {
	keys := testKeys(t)
	builder := testBuilder(t)
	script := depositScriptHex(t, keys, builder.Params().Net)

	var lists, broadcasts int
	var sentHex string
	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			lists++
			switch lists {
			case 1:
				return nil, nil
			case 2:
				// 40000 sat is still short of the 60000 sat threshold.
				return []*network.UTXO{depositUTXO(1, 40000, script)}, nil
			default:
				return []*network.UTXO{
					depositUTXO(1, 40000, script),
					depositUTXO(2, 30000, script),
				}, nil
			}
		},
		FeeRateFn: func(ctx context.Context) (float64, error) { return 10, nil },
		BroadcastTxFn: func(ctx context.Context, rawTxHex string) (string, error) {
			broadcasts++
			sentHex = rawTxHex
			return broadcastTxID, nil
		},
	}

	ledger := tempLedger(t)
	cfg := testConfig(svc, builder, keys)
	cfg.Ledger = ledger
	w, err := New(cfg)
	require.NoError(t, err)

	outcome, err := w.Run(runCtx(t))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, lists, 3, "below-threshold ticks should keep polling")
	assert.Equal(t, 1, broadcasts, "exactly one sweep must be broadcast")
	assert.Equal(t, broadcastTxID, outcome.BroadcastTxID)
	assert.Equal(t, uint64(70000), outcome.Total)
	assert.Equal(t, uint64(70000), outcome.Result.PaidAmount)
	assert.Equal(t, outcome.Result.Hex(), sentHex)
	assert.Len(t, outcome.Result.Tx.TxIn, 2)
	assert.Len(t, outcome.Result.Tx.TxOut, 2)

	// The sweep landed in the ledger exactly once.
	rec, err := ledger.Get(broadcastTxID)
	require.NoError(t, err)
	assert.Equal(t, uint64(70000), rec.PaidAmount)
	assert.Equal(t, outcome.Result.FeeAmount, rec.FeeAmount)
	assert.Equal(t, testContributor(), rec.Contributor)
	assert.Zero(t, outcome.Result.CreditedTokens.Cmp(rec.CreditedTokens))

	stats, err := ledger.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sweeps)
}

func TestWatcherBelowThresholdNeverBuilds(t *testing.T) {
	keys := testKeys(t)
	builder := testBuilder(t)
	script := depositScriptHex(t, keys, builder.Params().Net)

	// FeeRateFn and BroadcastTxFn stay nil: touching them would panic, so
	// finishing cleanly proves no build was attempted.
	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			return []*network.UTXO{depositUTXO(1, 30000, script)}, nil
		},
	}

	w, err := New(testConfig(svc, builder, keys))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatcherRetriesTransientListErrors(t *testing.T) {
	keys := testKeys(t)
	builder := testBuilder(t)
	script := depositScriptHex(t, keys, builder.Params().Net)

	lists := 0
	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			lists++
			if lists < 3 {
				return nil, network.ErrConnectionFailed
			}
			return []*network.UTXO{depositUTXO(1, 70000, script)}, nil
		},
		FeeRateFn: func(ctx context.Context) (float64, error) { return 10, nil },
		BroadcastTxFn: func(ctx context.Context, rawTxHex string) (string, error) {
			return broadcastTxID, nil
		},
	}

	w, err := New(testConfig(svc, builder, keys))
	require.NoError(t, err)

	outcome, err := w.Run(runCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 3, lists)
	assert.Equal(t, broadcastTxID, outcome.BroadcastTxID)
}

func TestWatcherRetriesBroadcastFailure(t *testing.T) {
	keys := testKeys(t)
	builder := testBuilder(t)
	script := depositScriptHex(t, keys, builder.Params().Net)

	broadcasts := 0
	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			return []*network.UTXO{depositUTXO(1, 70000, script)}, nil
		},
		FeeRateFn: func(ctx context.Context) (float64, error) { return 10, nil },
		BroadcastTxFn: func(ctx context.Context, rawTxHex string) (string, error) {
			broadcasts++
			if broadcasts == 1 {
				return "", network.ErrBroadcastRejected
			}
			return broadcastTxID, nil
		},
	}

	w, err := New(testConfig(svc, builder, keys))
	require.NoError(t, err)

	outcome, err := w.Run(runCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, broadcasts)
	assert.Equal(t, broadcastTxID, outcome.BroadcastTxID)
}

func TestWatcherDefersWhenFeeExceedsFunds(t *testing.T) {
	keys := testKeys(t)
	builder := testBuilder(t)
	script := depositScriptHex(t, keys, builder.Params().Net)

	// 119 unsigned bytes at 600 sat/byte is 71400 sat, more than the
	// deposits; at 10 sat/byte the sweep goes through.
	feeCalls := 0
	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			return []*network.UTXO{depositUTXO(1, 70000, script)}, nil
		},
		FeeRateFn: func(ctx context.Context) (float64, error) {
			feeCalls++
			if feeCalls == 1 {
				return 600, nil
			}
			return 10, nil
		},
		BroadcastTxFn: func(ctx context.Context, rawTxHex string) (string, error) {
			return broadcastTxID, nil
		},
	}

	w, err := New(testConfig(svc, builder, keys))
	require.NoError(t, err)

	outcome, err := w.Run(runCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, feeCalls)
	assert.Equal(t, uint64(1190), outcome.Result.FeeAmount)
}

func TestWatcherFatalBuildErrorEndsRun(t *testing.T) {
	keys := testKeys(t)
	builder := testBuilder(t)
	script := depositScriptHex(t, keys, builder.Params().Net)

	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			return []*network.UTXO{depositUTXO(1, 70000, script)}, nil
		},
		FeeRateFn: func(ctx context.Context) (float64, error) { return 10, nil },
	}

	// A mainnet destination cannot be swept to from a testnet builder.
	cfg := testConfig(svc, builder, keys)
	cfg.Destination = testDestination(address.MainNetVersion)
	w, err := New(cfg)
	require.NoError(t, err)

	_, err = w.Run(runCtx(t))
	assert.ErrorIs(t, err, sweep.ErrBadDestination)
}

func TestWatcherContextCancelled(t *testing.T) {
	svc := &network.MockChainService{
		ListUnspentFn: func(ctx context.Context, addr string) ([]*network.UTXO, error) {
			return nil, nil
		},
	}

	w, err := New(testConfig(svc, testBuilder(t), testKeys(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- construction tests ---

func TestNewValidation(t *testing.T) {
	svc := &network.MockChainService{}
	builder := testBuilder(t)
	keys := testKeys(t)

	cfg := testConfig(svc, builder, keys)
	cfg.Service = nil
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrNilParam)

	cfg = testConfig(svc, builder, keys)
	cfg.Builder = nil
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrNilParam)

	cfg = testConfig(svc, builder, keys)
	cfg.Keys = nil
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrNilParam)

	cfg = testConfig(svc, builder, keys)
	cfg.Interval = -time.Second
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrBadInterval)

	cfg = testConfig(svc, builder, keys)
	cfg.Destination = ""
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestNewDestinationFromParams(t *testing.T) {
	params := sweep.TestNet
	params.DestinationAddress = testDestination(address.TestNetVersion)
	builder, err := sweep.NewBuilder(params)
	require.NoError(t, err)

	cfg := testConfig(&network.MockChainService{}, builder, testKeys(t))
	cfg.Destination = ""
	w, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, params.DestinationAddress, w.dest)
}

func TestNewDefaultInterval(t *testing.T) {
	cfg := testConfig(&network.MockChainService{}, testBuilder(t), testKeys(t))
	cfg.Interval = 0
	w, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, w.interval)
}

func TestDepositAddress(t *testing.T) {
	keys := testKeys(t)
	w, err := New(testConfig(&network.MockChainService{}, testBuilder(t), keys))
	require.NoError(t, err)

	addr := w.DepositAddress()
	assert.Equal(t, keys.DepositAddress(address.TestNetVersion), addr)

	digest, version, err := address.DecodeHash160(addr)
	require.NoError(t, err)
	assert.Equal(t, address.TestNetVersion, version)
	assert.Equal(t, address.Hash160(keys.PubKeyBytes()), digest[:])
}
