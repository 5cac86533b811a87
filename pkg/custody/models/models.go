// Package models defines the custody domain model: users, records, and the
// append-only ownership ledger.
package models

// AllModels returns all models for database auto-migration.
func AllModels() []any {
	return []any{
		&User{},
		&Record{},
		&LedgerEntry{},
	}
}
