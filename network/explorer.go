package network

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gookit/slog"
)

// Conversion constants for explorer fee estimates, which arrive as BTC per
// kilobyte.
const (
	satoshisPerBTC = 100000000
	bytesPerKB     = 1000
)

// feeTargetBlocks is the confirmation target requested from the explorer.
const feeTargetBlocks = 2

// ExplorerClient talks to an insight-style chain explorer REST API.
type ExplorerClient struct {
	cfg    Config
	client *resty.Client
}

// Compile-time interface check.
var _ ChainService = (*ExplorerClient)(nil)

// NewExplorerClient builds a client for the given config. Zero Timeout and
// MaxFeeRate fall back to the package defaults.
func NewExplorerClient(cfg Config) *ExplorerClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxFeeRate == 0 {
		cfg.MaxFeeRate = DefaultMaxFeeRate
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &ExplorerClient{cfg: cfg, client: client}
}

// ListUnspent returns all unspent outputs currently held by addr.
func (c *ExplorerClient) ListUnspent(ctx context.Context, addr string) ([]*UTXO, error) {
	var utxos []*UTXO
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("address", addr).
		SetResult(&utxos).
		Get("/addr/{address}/utxo")
	if err != nil {
		return nil, fmt.Errorf("%w: list unspent: %v", ErrConnectionFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: list unspent: status %d: %s",
			ErrInvalidResponse, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return utxos, nil
}

// feeEstimate is the explorer's estimatefee response: confirmation target to
// BTC per kilobyte. The explorer reports -1 when it has no estimate.
type feeEstimate map[string]float64

// FeeRate returns the recommended fee rate in satoshis per byte.
func (c *ExplorerClient) FeeRate(ctx context.Context) (float64, error) {
	var est feeEstimate
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("nbBlocks", strconv.Itoa(feeTargetBlocks)).
		SetResult(&est).
		Get("/utils/estimatefee")
	if err != nil {
		return 0, fmt.Errorf("%w: estimate fee: %v", ErrConnectionFailed, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: estimate fee: status %d", ErrInvalidResponse, resp.StatusCode())
	}

	btcPerKB, ok := est[strconv.Itoa(feeTargetBlocks)]
	if !ok {
		return 0, fmt.Errorf("%w: no estimate for %d blocks", ErrFeeRateUnavailable, feeTargetBlocks)
	}
	rate := btcPerKB * satoshisPerBTC / bytesPerKB
	if rate <= 0 || rate > c.cfg.MaxFeeRate {
		slog.Warnf("explorer fee estimate %v sat/byte outside (0, %v], refusing", rate, c.cfg.MaxFeeRate)
		return 0, fmt.Errorf("%w: %v sat/byte outside (0, %v]", ErrFeeRateUnavailable, rate, c.cfg.MaxFeeRate)
	}
	return rate, nil
}

// broadcastResponse is the explorer's tx/send reply.
type broadcastResponse struct {
	TxID string `json:"txid"`
}

// BroadcastTx submits a raw transaction hex and returns the resulting txid.
func (c *ExplorerClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	if rawTxHex == "" {
		return "", fmt.Errorf("%w: empty transaction", ErrBroadcastRejected)
	}
	var out broadcastResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"rawtx": rawTxHex}).
		SetResult(&out).
		Post("/tx/send")
	if err != nil {
		return "", fmt.Errorf("%w: broadcast: %v", ErrConnectionFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d: %s",
			ErrBroadcastRejected, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if out.TxID == "" {
		return "", fmt.Errorf("%w: broadcast reply missing txid", ErrInvalidResponse)
	}
	slog.WithFields(slog.M{"txid": out.TxID}).Info("broadcast sweep transaction")
	return out.TxID, nil
}
