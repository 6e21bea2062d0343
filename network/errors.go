package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the explorer.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrInvalidResponse indicates the explorer returned a malformed or
	// unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrBroadcastRejected indicates the explorer rejected the broadcast
	// transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrFeeRateUnavailable indicates no usable fee estimate was returned:
	// missing, non-positive, or above the configured ceiling.
	ErrFeeRateUnavailable = errors.New("network: fee rate unavailable")
)
