// Package sweep assembles and signs the legacy transaction that sweeps
// collected campaign deposits to the fixed destination address while tagging
// the contributor's identity on the campaign chain with a second output.
package sweep

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// satPerBTC is the number of satoshis in one whole bitcoin.
const satPerBTC = 100000000

// sigHashType is the signature hash mode for every sweep input. SIGHASH_ALL
// commits each signature to all inputs and all outputs.
const sigHashType = txscript.SigHashAll

// Builder assembles and signs sweep transactions for one campaign
// environment. It holds no mutable state and is safe for concurrent use.
type Builder struct {
	params Params
}

// NewBuilder returns a Builder bound to the given environment params.
func NewBuilder(params Params) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Builder{params: params}, nil
}

// Params returns the environment the Builder was constructed with.
func (b *Builder) Params() Params { return b.params }

// BuildResult is the outcome of one successful Build call. It is immutable.
type BuildResult struct {
	// Tx is the fully signed transaction.
	Tx *wire.MsgTx

	// RawTx is Tx in the legacy serialized byte format, ready for broadcast.
	RawTx []byte

	// TxID is the transaction hash of RawTx.
	TxID chainhash.Hash

	// UnsignedSize is the serialized length, in bytes, the fee was computed
	// from: inputs present but still carrying empty unlocking scripts.
	UnsignedSize int

	// PaidAmount is the sum of all swept output values, in satoshis.
	PaidAmount uint64

	// FeeAmount is UnsignedSize times the fee rate, truncated, in satoshis.
	FeeAmount uint64

	// CreditedTokens is the exact campaign token amount credited for this
	// sweep: the post-fee sweep value scaled by TokensPerBTC.
	CreditedTokens *big.Rat
}

// Hex returns RawTx hex-encoded for broadcast collaborators.
func (r *BuildResult) Hex() string { return hex.EncodeToString(r.RawTx) }

// Build assembles and signs a transaction sweeping outs to dest, tagging
// contributor with a second fixed-value output.
//
// Output layout:
//
//	[0] pay-to-address -> dest        (sum of inputs, minus fee)
//	[1] P2PKH          -> contributor (MinOutputValue sat)
//
// Inputs preserve the order of outs. Signatures are computed per index
// against the matching previous output's locking script, so that order is
// load-bearing. The fee is the unsigned serialized length times
// feeRatePerByte, truncated, and is deducted from output 0 before any input
// is signed: each SIGHASH_ALL digest commits to the final output values.
// Signatures are deterministic low-S DER with the sighash byte appended,
// pushed alongside the public key per the P2PKH unlocking template.
//
// Build performs no I/O and no retries. Either a fully signed, internally
// consistent transaction is returned, or an error and nothing else.
func (b *Builder) Build(kp *KeyPair, outs []*SpendableOutput, feeRatePerByte float64, dest string, contributor [20]byte) (*BuildResult, error) {
	if kp == nil || kp.PrivateKey == nil || kp.PublicKey == nil {
		return nil, fmt.Errorf("%w: key pair", ErrNilParam)
	}
	if dest == "" {
		return nil, fmt.Errorf("%w: empty address", ErrBadDestination)
	}
	for i, o := range outs {
		if o == nil {
			return nil, fmt.Errorf("%w: outs[%d]", ErrNilParam, i)
		}
		if len(o.PkScript) == 0 {
			return nil, fmt.Errorf("%w: outs[%d] locking script", ErrNilParam, i)
		}
	}

	total := TotalValue(outs)
	if total < b.params.MinAggregate {
		return nil, &InsufficientAggregateError{Required: b.params.MinAggregate, Actual: total}
	}
	if math.IsNaN(feeRatePerByte) || math.IsInf(feeRatePerByte, 0) || feeRatePerByte <= 0 {
		return nil, &FeeRateError{Rate: feeRatePerByte}
	}

	destAddr, err := btcutil.DecodeAddress(dest, b.params.Net)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadDestination, dest, err)
	}
	if !destAddr.IsForNet(b.params.Net) {
		return nil, fmt.Errorf("%w: %q is not a %s address", ErrBadDestination, dest, b.params.Name)
	}
	destScript, err := txscript.PayToAddrScript(destAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: destination script: %v", ErrScriptBuild, err)
	}

	tagAddr, err := btcutil.NewAddressPubKeyHash(contributor[:], b.params.Net)
	if err != nil {
		return nil, fmt.Errorf("%w: contributor tag: %v", ErrScriptBuild, err)
	}
	tagScript, err := txscript.PayToAddrScript(tagAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: contributor tag script: %v", ErrScriptBuild, err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, o := range outs {
		txid := o.TxID
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&txid, o.Vout), nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(int64(total), destScript))
	tx.AddTxOut(wire.NewTxOut(int64(b.params.MinOutputValue), tagScript))

	// Empty unlocking scripts count toward the length under the legacy
	// serialization, which is what the published rate applies to.
	size := tx.SerializeSize()
	fee := uint64(float64(size) * feeRatePerByte)
	if fee > total || total-fee < b.params.MinOutputValue {
		return nil, &FeeError{ByteLength: size, Rate: feeRatePerByte, Fee: fee, Available: total}
	}
	tx.TxOut[0].Value = int64(total - fee)

	pubKey := kp.PubKeyBytes()
	for i, o := range outs {
		digest, err := txscript.CalcSignatureHash(o.PkScript, sigHashType, tx, i)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d digest: %v", ErrSignFailed, i, err)
		}
		sig := ecdsa.Sign(kp.PrivateKey, digest)
		unlock, err := txscript.NewScriptBuilder().
			AddData(append(sig.Serialize(), byte(sigHashType))).
			AddData(pubKey).
			Script()
		if err != nil {
			return nil, fmt.Errorf("%w: input %d unlocking script: %v", ErrSignFailed, i, err)
		}
		tx.TxIn[i].SignatureScript = unlock
	}

	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: serialize: %v", ErrSignFailed, err)
	}

	return &BuildResult{
		Tx:             tx,
		RawTx:          buf.Bytes(),
		TxID:           tx.TxHash(),
		UnsignedSize:   size,
		PaidAmount:     total,
		FeeAmount:      fee,
		CreditedTokens: creditedTokens(total-fee, b.params.TokensPerBTC),
	}, nil
}

// creditedTokens converts a satoshi value into campaign tokens at ratio
// tokensPerBTC per whole bitcoin, as an exact rational.
func creditedTokens(sat, tokensPerBTC uint64) *big.Rat {
	num := new(big.Int).Mul(new(big.Int).SetUint64(sat), new(big.Int).SetUint64(tokensPerBTC))
	return new(big.Rat).SetFrac(num, big.NewInt(satPerBTC))
}
