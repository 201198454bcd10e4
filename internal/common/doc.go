// Package common provides shared constants, domain-separation tags, and
// parameter errors used throughout the ACDP core.
//
// This is an internal package not intended for direct use by applications.
// It supports the implementation of the public pkg/* packages.
package common

import (
	"errors"
)

// Parameter errors shared across pkg/group, pkg/mac, pkg/proof and pkg/credential.
var (
	// ErrInvalidParameter indicates a nil or out-of-range argument.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMismatchedLengths indicates mismatched lengths in parallel slices.
	ErrMismatchedLengths = errors.New("mismatched lengths")
)
