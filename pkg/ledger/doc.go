// Package ledger tracks presentation nonce uniqueness per credential
// (spec.md §4.5 step 3, §6.4's ledger table: "(credential_id, nonce,
// context_hash, consumed_at)" with uniqueness on the first three columns).
//
// Rate-limit counting (presentations_used vs max_presentations) is a
// property of the credential record itself and lives in pkg/store; this
// package only answers "has this exact (nonce, context) pair been
// consumed for this credential before," which is the replay-detection half
// of verification.
package ledger
