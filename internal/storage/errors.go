// Package storage holds the errors shared by the store implementations.
package storage

import "errors"

var (
	// ErrCharacterNotFound is returned when a character id matches no row.
	ErrCharacterNotFound = errors.New("character not found")
	// ErrAffinityNotFound is returned when an affinity id matches no row.
	ErrAffinityNotFound = errors.New("affinity not found")
)
