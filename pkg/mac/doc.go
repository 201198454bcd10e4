// Package mac implements the CMZ14 MACGGM algebraic MAC at the heart of the
// ARC credential (spec.md §4.2): server keygen, blinded issuance (request,
// response, client finalize), and local non-ZK MAC verification.
//
// The scheme is keyed by (x0_blind, x0, x1, x2) over pkg/group's P-256
// scalar field and produces a MAC (U, Q) satisfying
//
//	Q = (x0 + m1*x1 + m2*x2) * U
//
// where m1 is the client's private per-credential attribute and m2 is the
// domain-fixed constant from internal/common. Grounded on the teacher's
// bbs/keygen.go (key generation) and bbs/signature.go /
// bbs/signature_manager.go (the sign/verify flow, generalized from a
// pairing-based signature to an algebraic MAC with no pairing check).
package mac
