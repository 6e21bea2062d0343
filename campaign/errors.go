package campaign

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("campaign: required parameter is nil")

	// ErrBadRecord indicates the record is missing required fields.
	ErrBadRecord = errors.New("campaign: invalid record")

	// ErrDuplicateSweep indicates a sweep with this txid is already recorded.
	ErrDuplicateSweep = errors.New("campaign: duplicate sweep")

	// ErrSweepNotFound indicates no sweep with this txid is recorded.
	ErrSweepNotFound = errors.New("campaign: sweep not found")
)
