// Package address implements the legacy base58check address codec: hash160
// digests, version-prefixed checksummed encoding, and pay-to-public-key-hash
// address derivation. All functions are pure and safe for concurrent use.
package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

// Version bytes for pay-to-public-key-hash addresses.
const (
	MainNetVersion byte = 0x00
	TestNetVersion byte = 0x6f
)

// Hash160Len is the length of a hash160 digest.
const Hash160Len = 20

// Hash160 computes RIPEMD-160(SHA-256(data)), the 20-byte digest embedded in
// pay-to-public-key-hash addresses and locking scripts.
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// Derive returns the base58check address for the given public key point
// encoding under the given network version byte: version || hash160(pubKey)
// followed by the first four bytes of the double-SHA-256 of that payload,
// base58-encoded with leading zero bytes preserved as '1' characters.
//
// The point encoding matters: compressed and uncompressed encodings of the
// same key hash to different addresses.
func Derive(pubKey []byte, version byte) string {
	return base58.CheckEncode(Hash160(pubKey), version)
}

// Decode reverses Derive. It returns the payload and version byte after
// validating the checksum; a mismatch fails with ErrInvalidChecksum and
// anything too short or otherwise undecodable fails with ErrMalformed.
func Decode(addr string) ([]byte, byte, error) {
	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidChecksum, addr)
		}
		return nil, 0, fmt.Errorf("%w: %q", ErrMalformed, addr)
	}
	return payload, version, nil
}

// DecodeHash160 decodes a pay-to-public-key-hash style address and returns
// its payload as a fixed 20-byte digest. Contributor identifiers on the
// campaign chain are recovered from user-supplied address strings this way.
func DecodeHash160(addr string) ([Hash160Len]byte, byte, error) {
	var digest [Hash160Len]byte
	payload, version, err := Decode(addr)
	if err != nil {
		return digest, 0, err
	}
	if len(payload) != Hash160Len {
		return digest, 0, fmt.Errorf("%w: %d bytes, want %d", ErrBadPayloadLen, len(payload), Hash160Len)
	}
	copy(digest[:], payload)
	return digest, version, nil
}
