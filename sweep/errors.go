package sweep

import (
	"errors"
	"fmt"
)

var (
	// ErrNilParam indicates a required parameter is nil or empty.
	ErrNilParam = errors.New("sweep: required parameter is nil")

	// ErrInsufficientAggregate indicates the collected outputs do not yet
	// meet the minimum aggregate value for a sweep.
	ErrInsufficientAggregate = errors.New("sweep: insufficient aggregate amount")

	// ErrInvalidFeeRate indicates the fee rate is zero, negative, or not a
	// finite number.
	ErrInvalidFeeRate = errors.New("sweep: invalid fee rate")

	// ErrFeeExceedsFunds indicates the computed fee would push the sweep
	// output below the minimum output floor.
	ErrFeeExceedsFunds = errors.New("sweep: fee exceeds available funds")

	// ErrBadDestination indicates the destination address cannot be decoded
	// for the configured network.
	ErrBadDestination = errors.New("sweep: bad destination address")

	// ErrBadKey indicates the private key scalar is malformed.
	ErrBadKey = errors.New("sweep: invalid private key")

	// ErrScriptBuild indicates locking or unlocking script construction failed.
	ErrScriptBuild = errors.New("sweep: script build failed")

	// ErrSignFailed indicates input signing failed. No partially signed
	// transaction is ever returned.
	ErrSignFailed = errors.New("sweep: signing failed")

	// ErrBadParams indicates the Params are incomplete.
	ErrBadParams = errors.New("sweep: invalid params")
)

// InsufficientAggregateError reports a deposit total below the sweep
// threshold. It matches ErrInsufficientAggregate under errors.Is.
type InsufficientAggregateError struct {
	Required uint64 // configured minimum aggregate, satoshis
	Actual   uint64 // sum of the supplied outputs, satoshis
}

func (e *InsufficientAggregateError) Error() string {
	return fmt.Sprintf("sweep: insufficient aggregate amount: need %d sat, have %d sat",
		e.Required, e.Actual)
}

func (e *InsufficientAggregateError) Unwrap() error { return ErrInsufficientAggregate }

// FeeRateError reports a fee rate that is not a positive finite number. It
// matches ErrInvalidFeeRate under errors.Is.
type FeeRateError struct {
	Rate float64 // the rejected rate, sat/byte
}

func (e *FeeRateError) Error() string {
	return fmt.Sprintf("sweep: invalid fee rate: %v sat/byte", e.Rate)
}

func (e *FeeRateError) Unwrap() error { return ErrInvalidFeeRate }

// FeeError reports a fee that would leave the sweep output below the minimum
// output floor. It matches ErrFeeExceedsFunds under errors.Is.
type FeeError struct {
	ByteLength int     // unsigned serialized length the fee was computed from
	Rate       float64 // sat per byte
	Fee        uint64  // computed fee, satoshis
	Available  uint64  // sweep output value before fee deduction, satoshis
}

func (e *FeeError) Error() string {
	return fmt.Sprintf("sweep: fee exceeds available funds: %d bytes at %v sat/byte = %d sat fee against %d sat",
		e.ByteLength, e.Rate, e.Fee, e.Available)
}

func (e *FeeError) Unwrap() error { return ErrFeeExceedsFunds }
