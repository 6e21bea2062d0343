package sweep

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/sunnya97/fundraiser-lib/address"
)

// PrivKeyLen is the length of a raw private key scalar.
const PrivKeyLen = 32

// KeyPair holds the secp256k1 key material controlling the campaign deposit
// address. Callers supply the raw scalar; keys are never generated or
// persisted here.
type KeyPair struct {
	PrivateKey *btcec.PrivateKey `json:"-"`
	PublicKey  *btcec.PublicKey  `json:"-"`

	// Compressed selects the public key point encoding used in unlocking
	// scripts and address derivation. It must match the encoding the
	// deposit outputs were paid to.
	Compressed bool `json:"compressed"`
}

// NewKeyPair parses a raw 32-byte private key scalar.
func NewKeyPair(privKey []byte, compressed bool) (*KeyPair, error) {
	if len(privKey) != PrivKeyLen {
		return nil, fmt.Errorf("%w: scalar is %d bytes, want %d", ErrBadKey, len(privKey), PrivKeyLen)
	}
	priv, pub := btcec.PrivKeyFromBytes(privKey)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrBadKey)
	}
	return &KeyPair{PrivateKey: priv, PublicKey: pub, Compressed: compressed}, nil
}

// PubKeyBytes returns the public key in the pair's chosen point encoding.
func (kp *KeyPair) PubKeyBytes() []byte {
	if kp.Compressed {
		return kp.PublicKey.SerializeCompressed()
	}
	return kp.PublicKey.SerializeUncompressed()
}

// DepositAddress derives the base58check address contributions are sent to,
// using the pair's point encoding and the given network version byte.
func (kp *KeyPair) DepositAddress(version byte) string {
	return address.Derive(kp.PubKeyBytes(), version)
}
