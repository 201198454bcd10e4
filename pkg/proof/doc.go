// Package proof implements ACDP's Σ-protocol proof engine (spec.md §4.3): a
// small linear-relation DSL, a Fiat-Shamir transcript built on a SHAKE-256
// duplex sponge, a generic Schnorr prover/verifier compiled from a Relation,
// and the concrete four-equation ARC presentation proof (spec §4.3
// "ARC presentation proof", §4.5).
//
// Grounded on the teacher's bbs/proof.go and bbs/proof_manager.go (the
// commit/challenge/response flow and object-pooled scratch allocation) and
// pkg/proof/builder.go (the predicate-processor idea, generalized here into
// the Relation/Equation DSL instead of a fixed set of predicate kinds — ACDP
// presentations prove knowledge and uniqueness, not numeric predicates, so
// the predicate-kind switch itself did not carry over).
package proof
