// Package store defines the persistence contract for ACDP credentials and
// their presentation ledger (spec.md §6.4), and the transactional
// semantics verification depends on (spec.md §9 "Transactional ledger": the
// presentations_used increment and the ledger's nonce-uniqueness insert
// must commit atomically).
//
// Three concrete backends live in sub-packages: memstore (process-local,
// built on pkg/ledger's in-memory ledger), sqlitestore (gorm +
// glebarez/sqlite, embedded) and pgstore (jackc/pgx/v5, production
// Postgres), mirroring the interface/impl split the teacher repo uses
// between bbs/signature_manager.go's pluggable KeyManager and its concrete
// implementations.
package store
