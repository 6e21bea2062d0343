package sweep

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SpendableOutput describes one unspent output collected at the deposit
// address. It is immutable once fetched; the Builder borrows the slice for
// the duration of a single Build call and never mutates it.
type SpendableOutput struct {
	TxID     chainhash.Hash `json:"txid"`
	Vout     uint32         `json:"vout"`
	Value    uint64         `json:"value"`     // satoshis
	PkScript []byte         `json:"pk_script"` // locking script of the prior output
}

// TotalValue sums the values of the given outputs.
func TotalValue(outs []*SpendableOutput) uint64 {
	var total uint64
	for _, o := range outs {
		if o != nil {
			total += o.Value
		}
	}
	return total
}
