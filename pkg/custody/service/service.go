// Package service implements the custody core: the ownership-transfer state
// machine, the revoke protocol, and participation-based access control.
//
// All operations take the requesting identity explicitly; there is no
// ambient user state. Mutating operations are serialized per record and
// commit their ledger entry and owner update atomically through the store.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devenkapadia/custodia/internal/logger"
	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store"
	"github.com/devenkapadia/custodia/pkg/metrics"
)

// Service executes custody changes against a Store.
type Service struct {
	store store.Store
	locks *recordLocks
}

// New creates a custody service backed by the given store.
func New(s store.Store) *Service {
	return &Service{
		store: s,
		locks: newRecordLocks(),
	}
}

// Transfer moves ownership of a record from the requester to the target
// user. Only the current owner may transfer. On success the ledger gains a
// transfer entry and the record's owner becomes the target, atomically.
//
// A repeated call with the same arguments fails with permission denied:
// ownership has already moved, so the requester is no longer the owner.
func (s *Service) Transfer(ctx context.Context, requester *models.User, recordID, targetUserID string) (*models.Record, error) {
	unlock := s.locks.lock(recordID)
	defer unlock()

	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	target, err := s.store.GetUserByID(ctx, targetUserID)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues(resultLabel(err)).Inc()
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, fmt.Errorf("target user: %w", err)
		}
		return nil, err
	}

	if record.OwnerID != requester.ID {
		metrics.TransfersTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, fmt.Errorf("only the current owner may transfer: %w", models.ErrPermissionDenied)
	}

	entry := &models.LedgerEntry{
		RecordID:   record.ID,
		FromUserID: requester.ID,
		ToUserID:   target.ID,
		Action:     string(models.ActionTransfer),
	}
	if _, err := s.store.AppendAndSetOwner(ctx, entry); err != nil {
		metrics.TransfersTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	metrics.TransfersTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.LedgerEntriesTotal.WithLabelValues(string(models.ActionTransfer)).Inc()
	logger.InfoCtx(ctx, "record transferred",
		"record_id", record.ID,
		"from", requester.Username,
		"to", target.Username,
	)

	return s.store.GetRecord(ctx, recordID)
}

// Revoke returns ownership of a record to the requester. The requester must
// have authored some past transfer of this record; the check deliberately
// matches any historical transfer, not just the most recent one, so a user
// several hops back in the chain can reclaim ownership directly from the
// current holder. On success the ledger gains a revoke entry from the
// current owner to the requester and the record's owner becomes the
// requester, atomically.
func (s *Service) Revoke(ctx context.Context, requester *models.User, recordID string) (*models.Record, error) {
	unlock := s.locks.lock(recordID)
	defer unlock()

	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		metrics.RevokesTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	entries, err := s.store.EntriesForRecord(ctx, recordID)
	if err != nil {
		metrics.RevokesTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	eligible := false
	for _, e := range entries {
		if e.Action == string(models.ActionTransfer) && e.FromUserID == requester.ID {
			eligible = true
			break
		}
	}
	if !eligible {
		metrics.RevokesTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return nil, fmt.Errorf("only a user who has previously transferred this record may revoke: %w", models.ErrPermissionDenied)
	}

	entry := &models.LedgerEntry{
		RecordID:   record.ID,
		FromUserID: record.OwnerID,
		ToUserID:   requester.ID,
		Action:     string(models.ActionRevoke),
	}
	if _, err := s.store.AppendAndSetOwner(ctx, entry); err != nil {
		metrics.RevokesTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	metrics.RevokesTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.LedgerEntriesTotal.WithLabelValues(string(models.ActionRevoke)).Inc()
	logger.InfoCtx(ctx, "record revoked",
		"record_id", record.ID,
		"to", requester.Username,
	)

	return s.store.GetRecord(ctx, recordID)
}

// ListRevocable returns the records the requester may revoke: records with
// some transfer authored by the requester, minus records with some revoke
// back to the requester. The two entry sets are computed independently and
// subtracted; a record transferred away again after a revoke stays excluded.
func (s *Service) ListRevocable(ctx context.Context, requester *models.User) ([]*models.Record, error) {
	entries, err := s.store.EntriesForUser(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	transferred := make(map[string]bool)
	revoked := make(map[string]bool)
	order := []string{}
	for _, e := range entries {
		switch {
		case e.Action == string(models.ActionTransfer) && e.FromUserID == requester.ID:
			if !transferred[e.RecordID] {
				transferred[e.RecordID] = true
				order = append(order, e.RecordID)
			}
		case e.Action == string(models.ActionRevoke) && e.ToUserID == requester.ID:
			revoked[e.RecordID] = true
		}
	}

	records := []*models.Record{}
	for _, recordID := range order {
		if revoked[recordID] {
			continue
		}
		record, err := s.store.GetRecord(ctx, recordID)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// resultLabel maps a domain error to a metrics result label.
func resultLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrRecordNotFound), errors.Is(err, models.ErrUserNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, models.ErrPermissionDenied):
		return metrics.ResultDenied
	default:
		return metrics.ResultError
	}
}
