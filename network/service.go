// Package network provides the chain-facing collaborators the sweep core
// depends on: listing unspent outputs held by the deposit address, fetching
// a recommended fee rate, and broadcasting the signed sweep transaction.
package network

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/sunnya97/fundraiser-lib/sweep"
)

// ChainService is the interface the deposit watcher drives. The production
// implementation is ExplorerClient; tests use MockChainService.
type ChainService interface {
	// ListUnspent returns all unspent outputs currently held by address.
	// A fresh address yields an empty slice, not an error.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// FeeRate returns the recommended fee rate in satoshis per byte,
	// sanity-checked against the configured ceiling.
	FeeRate(ctx context.Context) (float64, error)

	// BroadcastTx submits a raw transaction hex to the network and returns
	// the resulting txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// UTXO represents an unspent transaction output as reported by the explorer.
// TxID and ScriptPubKey are hex strings in the explorer's display encoding.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"satoshis"`
	ScriptPubKey  string `json:"scriptPubKey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// TotalAmount sums the satoshi amounts of the given outputs.
func TotalAmount(utxos []*UTXO) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	return total
}

// ToSpendable converts explorer outputs into the form the sweep Builder
// consumes. Explorers report txids in reversed display order; parsing them
// through chainhash restores wire order.
func ToSpendable(utxos []*UTXO) ([]*sweep.SpendableOutput, error) {
	outs := make([]*sweep.SpendableOutput, 0, len(utxos))
	for i, u := range utxos {
		txid, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: utxo[%d] txid %q", ErrInvalidResponse, i, u.TxID)
		}
		script, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil || len(script) == 0 {
			return nil, fmt.Errorf("%w: utxo[%d] locking script %q", ErrInvalidResponse, i, u.ScriptPubKey)
		}
		outs = append(outs, &sweep.SpendableOutput{
			TxID:     *txid,
			Vout:     u.Vout,
			Value:    u.Amount,
			PkScript: script,
		})
	}
	return outs, nil
}
