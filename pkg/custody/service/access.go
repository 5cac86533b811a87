package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// Access derives read permission from ownership, staff status, and ledger
// participation.
type Access struct {
	store store.Store
}

// NewAccess creates an access controller backed by the given store.
func NewAccess(s store.Store) *Access {
	return &Access{store: s}
}

// CanView reports whether the requester may read the record and its ledger.
// Access is granted to the current owner, to staff, and to any user who
// appears as source or target in some ledger entry for the record. Returns
// a wrapped ErrPermissionDenied otherwise.
func (a *Access) CanView(ctx context.Context, requester *models.User, record *models.Record) error {
	if record.OwnerID == requester.ID || requester.IsStaff() {
		return nil
	}

	entries, err := a.store.EntriesForRecord(ctx, record.ID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Involves(requester.ID) {
			return nil
		}
	}
	return fmt.Errorf("no ownership or ledger participation for record %s: %w", record.ID, models.ErrPermissionDenied)
}

// GetRecord loads a record and authorizes the requester against it.
func (a *Access) GetRecord(ctx context.Context, requester *models.User, recordID string) (*models.Record, error) {
	record, err := a.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := a.CanView(ctx, requester, record); err != nil {
		return nil, err
	}
	return record, nil
}

// VisibleRecords lists the records the requester may see in a listing:
// all records for staff, owned records otherwise.
func (a *Access) VisibleRecords(ctx context.Context, requester *models.User) ([]*models.Record, error) {
	if requester.IsStaff() {
		return a.store.ListRecords(ctx)
	}
	return a.store.ListRecordsOwnedBy(ctx, requester.ID)
}

// RecordHistory returns the ordered ledger of a record, gated by CanView.
func (a *Access) RecordHistory(ctx context.Context, requester *models.User, recordID string) ([]*models.LedgerEntry, error) {
	record, err := a.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := a.CanView(ctx, requester, record); err != nil {
		return nil, err
	}
	return a.store.EntriesForRecord(ctx, recordID)
}

// AllHistory returns every ledger entry visible to the requester. Staff see
// the full ledger. Everyone else sees the union of entries on records they
// currently own and entries they participate in, computed as an explicit
// set union over the two query results and ordered by entry id.
func (a *Access) AllHistory(ctx context.Context, requester *models.User) ([]*models.LedgerEntry, error) {
	if requester.IsStaff() {
		return a.store.ListEntries(ctx)
	}

	participating, err := a.store.EntriesForUser(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	owned, err := a.store.ListRecordsOwnedBy(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	entries := []*models.LedgerEntry{}
	for _, e := range participating {
		if !seen[e.ID] {
			seen[e.ID] = true
			entries = append(entries, e)
		}
	}
	for _, record := range owned {
		recordEntries, err := a.store.EntriesForRecord(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range recordEntries {
			if !seen[e.ID] {
				seen[e.ID] = true
				entries = append(entries, e)
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}
