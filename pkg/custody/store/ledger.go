package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/devenkapadia/custodia/pkg/custody/models"
)

// ledgerPreloads are the associations loaded with every ledger query so the
// API layer can render participants and the record without extra round trips.
var ledgerPreloads = []string{"FromUser", "ToUser", "Record", "Record.Owner"}

func (s *GORMStore) AppendEntry(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return s.getEntry(ctx, entry.ID)
}

// EntriesForRecord returns the full provenance of a record, oldest first.
// Ordering is by the autoincrement id, which is creation order even when
// timestamps collide.
func (s *GORMStore) EntriesForRecord(ctx context.Context, recordID string) ([]*models.LedgerEntry, error) {
	return listWhere[models.LedgerEntry](s.db, ctx, "record_id = ?", []any{recordID}, "id", ledgerPreloads...)
}

// EntriesForUser returns every entry in which the user appears as source or
// target, oldest first.
func (s *GORMStore) EntriesForUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error) {
	return listWhere[models.LedgerEntry](s.db, ctx, "from_user_id = ? OR to_user_id = ?", []any{userID, userID}, "id", ledgerPreloads...)
}

// ListEntries returns the entire ledger, oldest first. Staff history only.
func (s *GORMStore) ListEntries(ctx context.Context) ([]*models.LedgerEntry, error) {
	return listWhere[models.LedgerEntry](s.db, ctx, "1 = 1", nil, "id", ledgerPreloads...)
}

// AppendAndSetOwner appends a custody entry and moves the record to
// entry.ToUserID in one transaction. Either both effects commit or neither
// does; a storage-level abort surfaces as ErrConflict so the caller may
// retry the whole operation.
func (s *GORMStore) AppendAndSetOwner(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Record{}).
			Where("id = ?", entry.RecordID).
			Update("owner_id", entry.ToUserID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if isBusyError(err) {
			return nil, fmt.Errorf("custody change aborted: %w", models.ErrConflict)
		}
		return nil, err
	}

	return s.getEntry(ctx, entry.ID)
}

// getEntry reloads an entry with its associations after a write.
func (s *GORMStore) getEntry(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	return getByField[models.LedgerEntry](s.db, ctx, "id", id, gorm.ErrRecordNotFound, ledgerPreloads...)
}

// isBusyError checks for lock/serialization failures that are safe to retry.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite busy/locked or PostgreSQL serialization failure
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "could not serialize access")
}
