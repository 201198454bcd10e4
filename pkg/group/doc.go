// Package group implements the P-256 scalar/point arithmetic ACDP's ARC
// credential system is built on: scalar and point operations, the two fixed
// independent generators G and H, hash-to-curve, constant-time equality, and
// compressed-affine serialization.
//
// The curve itself is never reimplemented here. Every arithmetic operation
// delegates to github.com/cloudflare/circl/group's P256 group, which already
// provides constant-time field and group arithmetic plus a RFC 9380
// hash-to-curve. This package exists to give that generic group API the
// ACDP-specific surface spec.md §4.1 calls for: fixed named generators,
// identity-point rejection, and a narrower, domain-typed error set.
package group
