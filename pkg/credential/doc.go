// Package credential implements the ACDP credential model: the three
// credential variants (identity-bound, anonymous, hybrid), their canonical
// serialization, issuer signing, and capability-reduction algebra (spec.md
// §4.4, §9 "Dynamic dispatch across credential variants").
//
// A Credential is a tagged sum rather than three separate Go types: every
// variant shares the same struct and the same method surface
// (VerifySignature, ExtractCapabilities, CanonicalBytes), and the variant
// tag decides which fields are populated and which checks apply. This
// mirrors the trait-object dispatch the design notes call for without
// reaching for interfaces or reflection at the boundary.
//
// Grounded on the teacher's pkg/credential/credential.go (Builder pattern,
// JSON marshaling shape) and pkg/credential/presentation.go (the
// presentation envelope and its fluent verifier), generalized from BBS+
// selective disclosure to ARC presentation proofs built on pkg/proof.
package credential

// Size and schema constants carried over from the credential model's
// ambient housekeeping.
const (
	// MaxCredentialSize bounds the canonical encoding accepted by stores
	// and transport layers. Enforced in Credential.UnmarshalJSON, so it
	// applies uniformly to store reads and wire-transport bodies.
	MaxCredentialSize = 1 << 20 // 1MB

	// CurrentVersion is the value every Credential minted by this package
	// carries in its Version field (spec.md §3: "all variants carry
	// version=\"0.3\""). Credential.CheckVersion rejects anything else.
	CurrentVersion = "0.3"
)
