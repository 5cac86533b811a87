package store

import (
	"context"
	"time"

	"github.com/devenkapadia/custodia/pkg/custody/models"
)

func (s *GORMStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	return getByField[models.Record](s.db, ctx, "id", id, models.ErrRecordNotFound, "Owner")
}

func (s *GORMStore) ListRecords(ctx context.Context) ([]*models.Record, error) {
	return listAll[models.Record](s.db, ctx, "Owner")
}

func (s *GORMStore) ListRecordsOwnedBy(ctx context.Context, userID string) ([]*models.Record, error) {
	return listWhere[models.Record](s.db, ctx, "owner_id = ?", []any{userID}, "created_at", "Owner")
}

func (s *GORMStore) CreateRecord(ctx context.Context, record *models.Record) (string, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return createWithID(s.db, ctx, record, func(r *models.Record, id string) { r.ID = id }, record.ID, models.ErrDuplicateRecord)
}

// SetOwner unconditionally points a record at a new owner. Only the custody
// service calls this, and only under the record's lock; everyone else goes
// through Transfer/Revoke.
func (s *GORMStore) SetOwner(ctx context.Context, recordID, ownerID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Record{}).
		Where("id = ?", recordID).
		Update("owner_id", ownerID)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}
