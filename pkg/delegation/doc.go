// Package delegation implements the ACDP delegation engine (spec.md §4.6):
// reducing a parent credential's capabilities into a signed grant for a
// child agent, and walking/verifying a delegation chain at presentation
// time.
//
// There is no teacher precedent for delegation in the BBS+ example (it has
// no notion of a capability chain); this package follows the credential
// package's signing conventions (Ed25519 over a canonical, signature-free
// payload) and the proof package's fail-closed error style.
package delegation
