package watcher

import "errors"

var (
	// ErrNilParam indicates a required collaborator is missing.
	ErrNilParam = errors.New("watcher: required collaborator is nil")

	// ErrNoDestination indicates neither the config nor the builder params
	// carry a sweep destination address.
	ErrNoDestination = errors.New("watcher: no destination address")

	// ErrBadInterval indicates the poll interval is negative.
	ErrBadInterval = errors.New("watcher: invalid poll interval")
)
