package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store/memory"
)

func createTestUser(t *testing.T, s *memory.Store, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hashed",
		Enabled:      true,
		Role:         role,
	}
	if _, err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createTestRecord(t *testing.T, s *memory.Store, name string, owner *models.User) *models.Record {
	t.Helper()
	record := &models.Record{
		Name:    name,
		OwnerID: owner.ID,
	}
	if _, err := s.CreateRecord(context.Background(), record); err != nil {
		t.Fatalf("failed to create record %s: %v", name, err)
	}
	return record
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("owner moves custody", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		updated, err := svc.Transfer(ctx, alice, record.ID, bob.ID)
		if err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		if updated.OwnerID != bob.ID {
			t.Errorf("expected owner %s, got %s", bob.ID, updated.OwnerID)
		}

		entries, err := s.EntriesForRecord(ctx, record.ID)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 ledger entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Action != string(models.ActionTransfer) {
			t.Errorf("expected transfer action, got %q", e.Action)
		}
		if e.FromUserID != alice.ID || e.ToUserID != bob.ID {
			t.Errorf("unexpected entry endpoints: from=%s to=%s", e.FromUserID, e.ToUserID)
		}
	})

	t.Run("owner may transfer to themselves", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		updated, err := svc.Transfer(ctx, alice, record.ID, alice.ID)
		if err != nil {
			t.Fatalf("self transfer failed: %v", err)
		}
		if updated.OwnerID != alice.ID {
			t.Errorf("owner should remain %s, got %s", alice.ID, updated.OwnerID)
		}

		entries, _ := s.EntriesForRecord(ctx, record.ID)
		if len(entries) != 1 {
			t.Fatalf("expected 1 ledger entry, got %d", len(entries))
		}
		if entries[0].FromUserID != alice.ID || entries[0].ToUserID != alice.ID {
			t.Errorf("entry should run alice->alice, got from=%s to=%s", entries[0].FromUserID, entries[0].ToUserID)
		}

		// The self-transfer counts as a transfer authored by alice, so the
		// record enters her revocable set like any other.
		records, err := svc.ListRevocable(ctx, alice)
		if err != nil {
			t.Fatalf("list revocable failed: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected record in revocable set after self transfer, got %d", len(records))
		}
	})

	t.Run("non-owner denied", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		carol := createTestUser(t, s, "carol", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		_, err := svc.Transfer(ctx, bob, record.ID, carol.ID)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}

		entries, _ := s.EntriesForRecord(ctx, record.ID)
		if len(entries) != 0 {
			t.Errorf("denied transfer must not append to the ledger, got %d entries", len(entries))
		}
	})

	t.Run("repeat transfer denied after custody moved", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("first transfer failed: %v", err)
		}
		_, err := svc.Transfer(ctx, alice, record.ID, bob.ID)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied on repeat, got %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")

		_, err := svc.Transfer(ctx, alice, "no-such-record", bob.ID)
		if !errors.Is(err, models.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("missing target user", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		_, err := svc.Transfer(ctx, alice, record.ID, "no-such-user")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestTransfer_ConcurrentSameRecord(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := New(s)
	alice := createTestUser(t, s, "alice", "user")
	bob := createTestUser(t, s, "bob", "user")
	carol := createTestUser(t, s, "carol", "user")
	record := createTestRecord(t, s, "report.pdf", alice)

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []string{bob.ID, carol.ID}
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Transfer(ctx, alice, record.ID, targets[i])
		}(i)
	}
	wg.Wait()

	var succeeded, denied int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrPermissionDenied):
			denied++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || denied != 1 {
		t.Errorf("expected exactly one commit and one denial, got %d/%d", succeeded, denied)
	}

	entries, err := s.EntriesForRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 ledger entry, got %d", len(entries))
	}

	final, _ := s.GetRecord(ctx, record.ID)
	if final.OwnerID != bob.ID && final.OwnerID != carol.ID {
		t.Errorf("owner should be one of the targets, got %s", final.OwnerID)
	}
	if final.OwnerID != entries[0].ToUserID {
		t.Errorf("owner %s does not match ledger entry target %s", final.OwnerID, entries[0].ToUserID)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()

	t.Run("previous transferor reclaims from current holder", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		carol := createTestUser(t, s, "carol", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		// alice -> bob -> carol, then alice revokes directly from carol
		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("transfer to bob failed: %v", err)
		}
		if _, err := svc.Transfer(ctx, bob, record.ID, carol.ID); err != nil {
			t.Fatalf("transfer to carol failed: %v", err)
		}

		updated, err := svc.Revoke(ctx, alice, record.ID)
		if err != nil {
			t.Fatalf("revoke failed: %v", err)
		}
		if updated.OwnerID != alice.ID {
			t.Errorf("expected owner %s after revoke, got %s", alice.ID, updated.OwnerID)
		}

		entries, _ := s.EntriesForRecord(ctx, record.ID)
		if len(entries) != 3 {
			t.Fatalf("expected 3 ledger entries, got %d", len(entries))
		}
		last := entries[2]
		if last.Action != string(models.ActionRevoke) {
			t.Errorf("expected revoke action, got %q", last.Action)
		}
		if last.FromUserID != carol.ID || last.ToUserID != alice.ID {
			t.Errorf("revoke entry should run holder->requester, got from=%s to=%s", last.FromUserID, last.ToUserID)
		}
	})

	t.Run("user with no past transfer denied", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		carol := createTestUser(t, s, "carol", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		_, err := svc.Revoke(ctx, carol, record.ID)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("receiving a transfer does not grant revoke", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		record := createTestRecord(t, s, "report.pdf", alice)

		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		// bob never transferred this record away, so bob cannot revoke
		_, err := svc.Revoke(ctx, bob, record.ID)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")

		_, err := svc.Revoke(ctx, alice, "no-such-record")
		if !errors.Is(err, models.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestListRevocable(t *testing.T) {
	ctx := context.Background()

	t.Run("transferred records are revocable", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		r1 := createTestRecord(t, s, "a.txt", alice)
		r2 := createTestRecord(t, s, "b.txt", alice)

		if _, err := svc.Transfer(ctx, alice, r1.ID, bob.ID); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		if _, err := svc.Transfer(ctx, alice, r2.ID, bob.ID); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		records, err := svc.ListRevocable(ctx, alice)
		if err != nil {
			t.Fatalf("list revocable failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 revocable records, got %d", len(records))
		}
	})

	t.Run("excludes records once revoked", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")
		bob := createTestUser(t, s, "bob", "user")
		record := createTestRecord(t, s, "a.txt", alice)

		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		if _, err := svc.Revoke(ctx, alice, record.ID); err != nil {
			t.Fatalf("revoke failed: %v", err)
		}

		records, err := svc.ListRevocable(ctx, alice)
		if err != nil {
			t.Fatalf("list revocable failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no revocable records after revoke, got %d", len(records))
		}

		// A later transfer does not bring the record back: the revoke entry
		// permanently excludes it from the requester's revocable set.
		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("re-transfer failed: %v", err)
		}
		records, err = svc.ListRevocable(ctx, alice)
		if err != nil {
			t.Fatalf("list revocable failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("record revoked once must stay excluded, got %d", len(records))
		}
	})

	t.Run("empty for user with no transfers", func(t *testing.T) {
		s := memory.New()
		svc := New(s)
		alice := createTestUser(t, s, "alice", "user")

		records, err := svc.ListRevocable(ctx, alice)
		if err != nil {
			t.Fatalf("list revocable failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected empty revocable set, got %d", len(records))
		}
	})
}
