// Package common defines sentinel errors shared between the repository and
// service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by conditional updates whose
	// version guard matched zero rows. The caller must re-read and retry.
	ErrVersionConflict = errors.New("version conflict")
)
