package address

import "errors"

var (
	// ErrInvalidChecksum indicates the four-byte checksum does not match the
	// decoded payload.
	ErrInvalidChecksum = errors.New("address: invalid checksum")

	// ErrMalformed indicates the string is not a decodable address.
	ErrMalformed = errors.New("address: malformed address")

	// ErrBadPayloadLen indicates the decoded payload is not a hash160 digest.
	ErrBadPayloadLen = errors.New("address: unexpected payload length")
)
