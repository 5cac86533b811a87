package service

import (
	"context"
	"errors"
	"testing"

	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store/memory"
)

func TestCanView(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := New(s)
	access := NewAccess(s)

	alice := createTestUser(t, s, "alice", "user")
	bob := createTestUser(t, s, "bob", "user")
	carol := createTestUser(t, s, "carol", "user")
	staff := createTestUser(t, s, "root", "staff")
	record := createTestRecord(t, s, "report.pdf", alice)

	t.Run("owner can view", func(t *testing.T) {
		r, _ := s.GetRecord(ctx, record.ID)
		if err := access.CanView(ctx, alice, r); err != nil {
			t.Errorf("owner should view: %v", err)
		}
	})

	t.Run("staff can view", func(t *testing.T) {
		r, _ := s.GetRecord(ctx, record.ID)
		if err := access.CanView(ctx, staff, r); err != nil {
			t.Errorf("staff should view: %v", err)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		r, _ := s.GetRecord(ctx, record.ID)
		err := access.CanView(ctx, bob, r)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("past participants keep access", func(t *testing.T) {
		if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		r, _ := s.GetRecord(ctx, record.ID)

		// alice lost ownership but participated in the transfer
		if err := access.CanView(ctx, alice, r); err != nil {
			t.Errorf("past participant should view: %v", err)
		}
		if err := access.CanView(ctx, bob, r); err != nil {
			t.Errorf("current owner should view: %v", err)
		}
		if err := access.CanView(ctx, carol, r); !errors.Is(err, models.ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied for carol, got %v", err)
		}
	})
}

func TestGetRecord(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	access := NewAccess(s)

	alice := createTestUser(t, s, "alice", "user")
	bob := createTestUser(t, s, "bob", "user")
	record := createTestRecord(t, s, "report.pdf", alice)

	if _, err := access.GetRecord(ctx, alice, record.ID); err != nil {
		t.Errorf("owner get failed: %v", err)
	}
	if _, err := access.GetRecord(ctx, bob, record.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := access.GetRecord(ctx, alice, "no-such-record"); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestVisibleRecords(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	access := NewAccess(s)

	alice := createTestUser(t, s, "alice", "user")
	bob := createTestUser(t, s, "bob", "user")
	staff := createTestUser(t, s, "root", "staff")
	createTestRecord(t, s, "a.txt", alice)
	createTestRecord(t, s, "b.txt", alice)
	createTestRecord(t, s, "c.txt", bob)

	aliceRecords, err := access.VisibleRecords(ctx, alice)
	if err != nil {
		t.Fatalf("visible records failed: %v", err)
	}
	if len(aliceRecords) != 2 {
		t.Errorf("expected 2 records for alice, got %d", len(aliceRecords))
	}

	staffRecords, err := access.VisibleRecords(ctx, staff)
	if err != nil {
		t.Fatalf("visible records failed: %v", err)
	}
	if len(staffRecords) != 3 {
		t.Errorf("expected 3 records for staff, got %d", len(staffRecords))
	}
}

func TestRecordHistory(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := New(s)
	access := NewAccess(s)

	alice := createTestUser(t, s, "alice", "user")
	bob := createTestUser(t, s, "bob", "user")
	carol := createTestUser(t, s, "carol", "user")
	record := createTestRecord(t, s, "report.pdf", alice)

	if _, err := svc.Transfer(ctx, alice, record.ID, bob.ID); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if _, err := svc.Revoke(ctx, alice, record.ID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	entries, err := access.RecordHistory(ctx, alice, record.ID)
	if err != nil {
		t.Fatalf("record history failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Append order: ids strictly increasing
	if entries[0].ID >= entries[1].ID {
		t.Errorf("entries out of append order: %d then %d", entries[0].ID, entries[1].ID)
	}
	if entries[0].Action != string(models.ActionTransfer) || entries[1].Action != string(models.ActionRevoke) {
		t.Errorf("unexpected actions: %q, %q", entries[0].Action, entries[1].Action)
	}

	if _, err := access.RecordHistory(ctx, carol, record.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for stranger, got %v", err)
	}
}

func TestAllHistory(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	svc := New(s)
	access := NewAccess(s)

	alice := createTestUser(t, s, "alice", "user")
	bob := createTestUser(t, s, "bob", "user")
	carol := createTestUser(t, s, "carol", "user")
	staff := createTestUser(t, s, "root", "staff")

	r1 := createTestRecord(t, s, "a.txt", alice)
	r2 := createTestRecord(t, s, "b.txt", bob)
	r3 := createTestRecord(t, s, "c.txt", carol)

	// a.txt: alice -> bob; b.txt: bob -> alice; c.txt: carol -> bob
	if _, err := svc.Transfer(ctx, alice, r1.ID, bob.ID); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if _, err := svc.Transfer(ctx, bob, r2.ID, alice.ID); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if _, err := svc.Transfer(ctx, carol, r3.ID, bob.ID); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	t.Run("staff sees full ledger", func(t *testing.T) {
		entries, err := access.AllHistory(ctx, staff)
		if err != nil {
			t.Fatalf("all history failed: %v", err)
		}
		if len(entries) != 3 {
			t.Errorf("expected 3 entries, got %d", len(entries))
		}
	})

	t.Run("user sees owned plus participating without duplicates", func(t *testing.T) {
		// alice participates in the a.txt and b.txt transfers, and owns b.txt.
		// The b.txt entry satisfies both conditions and must appear once.
		entries, err := access.AllHistory(ctx, alice)
		if err != nil {
			t.Fatalf("all history failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries for alice, got %d", len(entries))
		}
		seen := map[uint]bool{}
		for _, e := range entries {
			if seen[e.ID] {
				t.Errorf("duplicate entry id %d", e.ID)
			}
			seen[e.ID] = true
			if e.RecordID == r3.ID {
				t.Errorf("alice must not see the c.txt entry")
			}
		}
	})

	t.Run("ordered by entry id", func(t *testing.T) {
		entries, err := access.AllHistory(ctx, bob)
		if err != nil {
			t.Fatalf("all history failed: %v", err)
		}
		for i := 1; i < len(entries); i++ {
			if entries[i-1].ID >= entries[i].ID {
				t.Errorf("entries out of order at %d: %d then %d", i, entries[i-1].ID, entries[i].ID)
			}
		}
	})
}
