//go:build integration

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/devenkapadia/custodia/pkg/custody/models"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	store, err := New(&Config{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

func createUser(t *testing.T, s *GORMStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hashed-password",
		Enabled:      true,
		Role:         string(models.RoleUser),
	}
	if _, err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createRecord(t *testing.T, s *GORMStore, name, ownerID string) *models.Record {
	t.Helper()
	record := &models.Record{
		ID:      uuid.New().String(),
		Name:    name,
		OwnerID: ownerID,
	}
	if _, err := s.CreateRecord(context.Background(), record); err != nil {
		t.Fatalf("failed to create record %s: %v", name, err)
	}
	return record
}

func TestNew(t *testing.T) {
	t.Run("default config uses sqlite", func(t *testing.T) {
		config := &Config{}
		config.ApplyDefaults()

		if config.Type != DatabaseTypeSQLite {
			t.Errorf("expected SQLite, got %s", config.Type)
		}
	})

	t.Run("invalid config returns error", func(t *testing.T) {
		config := &Config{
			Type: "invalid",
		}
		_, err := New(config)
		if err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("creates in-memory store", func(t *testing.T) {
		store := createTestStore(t)
		defer store.Close()

		if err := store.Ping(context.Background()); err != nil {
			t.Errorf("ping failed: %v", err)
		}
	})
}

func TestUserOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		user := &models.User{
			Username:     "testuser",
			PasswordHash: "hashed-password",
			Enabled:      true,
			Role:         "user",
		}

		id, err := store.CreateUser(ctx, user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if id == "" {
			t.Error("expected non-empty user ID")
		}
	})

	t.Run("duplicate user fails", func(t *testing.T) {
		user := &models.User{
			Username:     "testuser",
			PasswordHash: "hashed-password",
		}

		_, err := store.CreateUser(ctx, user)
		if !errors.Is(err, models.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("get user", func(t *testing.T) {
		user, err := store.GetUser(ctx, "testuser")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.Username != "testuser" {
			t.Errorf("expected username 'testuser', got %q", user.Username)
		}
	})

	t.Run("get user not found", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nonexistent")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("update user", func(t *testing.T) {
		user, _ := store.GetUser(ctx, "testuser")
		user.Role = "staff"

		if err := store.UpdateUser(ctx, user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		updated, _ := store.GetUser(ctx, "testuser")
		if updated.Role != "staff" {
			t.Errorf("expected role 'staff', got %q", updated.Role)
		}
	})

	t.Run("update password", func(t *testing.T) {
		if err := store.UpdatePassword(ctx, "testuser", "new-hash"); err != nil {
			t.Fatalf("failed to update password: %v", err)
		}
		user, _ := store.GetUser(ctx, "testuser")
		if user.PasswordHash != "new-hash" {
			t.Errorf("password hash not updated")
		}
	})

	t.Run("update password of missing user", func(t *testing.T) {
		err := store.UpdatePassword(ctx, "nonexistent", "hash")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("delete user", func(t *testing.T) {
		if err := store.DeleteUser(ctx, "testuser"); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}
		_, err := store.GetUser(ctx, "testuser")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}
	})
}

func TestValidateCredentials(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	hash, err := models.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     "alice",
		PasswordHash: hash,
		Enabled:      true,
		Role:         "user",
	}
	if _, err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		got, err := store.ValidateCredentials(ctx, "alice", "correct-horse")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("unexpected user %q", got.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := store.ValidateCredentials(ctx, "alice", "wrong")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.ValidateCredentials(ctx, "nobody", "pw")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled user", func(t *testing.T) {
		u, _ := store.GetUser(ctx, "alice")
		u.Enabled = false
		if err := store.UpdateUser(ctx, u); err != nil {
			t.Fatalf("failed to disable user: %v", err)
		}
		_, err := store.ValidateCredentials(ctx, "alice", "correct-horse")
		if !errors.Is(err, models.ErrUserDisabled) {
			t.Errorf("expected ErrUserDisabled, got %v", err)
		}
	})
}

func TestEnsureStaffUser(t *testing.T) {
	t.Setenv(models.EnvAdminInitialPassword, "")
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	password, err := store.EnsureStaffUser(ctx)
	if err != nil {
		t.Fatalf("ensure staff user failed: %v", err)
	}
	if password == "" {
		t.Error("expected generated password on first run")
	}

	staff, err := store.GetUser(ctx, models.AdminUsername)
	if err != nil {
		t.Fatalf("staff user missing: %v", err)
	}
	if !staff.IsStaff() {
		t.Errorf("bootstrap user should have staff role, got %q", staff.Role)
	}

	// Second run is a no-op
	password, err = store.EnsureStaffUser(ctx)
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if password != "" {
		t.Error("expected empty password when staff user exists")
	}
}

func TestRecordOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	t.Run("create and get with owner preloaded", func(t *testing.T) {
		record := createRecord(t, store, "report.pdf", alice.ID)

		got, err := store.GetRecord(ctx, record.ID)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.Owner == nil || got.Owner.Username != "alice" {
			t.Errorf("expected owner alice preloaded, got %+v", got.Owner)
		}
	})

	t.Run("get record not found", func(t *testing.T) {
		_, err := store.GetRecord(ctx, uuid.New().String())
		if !errors.Is(err, models.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("list owned", func(t *testing.T) {
		createRecord(t, store, "notes.txt", bob.ID)

		records, err := store.ListRecordsOwnedBy(ctx, bob.ID)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record for bob, got %d", len(records))
		}
		if records[0].Name != "notes.txt" {
			t.Errorf("unexpected record %q", records[0].Name)
		}
	})

	t.Run("set owner", func(t *testing.T) {
		record := createRecord(t, store, "handoff.txt", alice.ID)

		if err := store.SetOwner(ctx, record.ID, bob.ID); err != nil {
			t.Fatalf("failed to set owner: %v", err)
		}
		got, _ := store.GetRecord(ctx, record.ID)
		if got.OwnerID != bob.ID {
			t.Errorf("expected owner %s, got %s", bob.ID, got.OwnerID)
		}
	})

	t.Run("set owner of missing record", func(t *testing.T) {
		err := store.SetOwner(ctx, uuid.New().String(), bob.ID)
		if !errors.Is(err, models.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestLedgerOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	record := createRecord(t, store, "report.pdf", alice.ID)

	t.Run("append and set owner is atomic", func(t *testing.T) {
		entry := &models.LedgerEntry{
			RecordID:   record.ID,
			FromUserID: alice.ID,
			ToUserID:   bob.ID,
			Action:     string(models.ActionTransfer),
		}

		appended, err := store.AppendAndSetOwner(ctx, entry)
		if err != nil {
			t.Fatalf("append and set owner failed: %v", err)
		}
		if appended.ID == 0 {
			t.Error("expected assigned entry id")
		}
		if appended.FromUser == nil || appended.FromUser.Username != "alice" {
			t.Errorf("expected from user preloaded, got %+v", appended.FromUser)
		}

		got, _ := store.GetRecord(ctx, record.ID)
		if got.OwnerID != bob.ID {
			t.Errorf("owner not updated with entry, got %s", got.OwnerID)
		}
	})

	t.Run("append to missing record rolls back", func(t *testing.T) {
		entry := &models.LedgerEntry{
			RecordID:   uuid.New().String(),
			FromUserID: bob.ID,
			ToUserID:   alice.ID,
			Action:     string(models.ActionTransfer),
		}

		_, err := store.AppendAndSetOwner(ctx, entry)
		if !errors.Is(err, models.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}

		// The entry from the aborted transaction must not be visible
		entries, _ := store.ListEntries(ctx)
		for _, e := range entries {
			if e.RecordID == entry.RecordID {
				t.Error("entry from rolled back transaction is visible")
			}
		}
	})

	t.Run("entries ordered by id", func(t *testing.T) {
		revoke := &models.LedgerEntry{
			RecordID:   record.ID,
			FromUserID: bob.ID,
			ToUserID:   alice.ID,
			Action:     string(models.ActionRevoke),
		}
		if _, err := store.AppendAndSetOwner(ctx, revoke); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		entries, err := store.EntriesForRecord(ctx, record.ID)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].ID >= entries[1].ID {
			t.Errorf("entries out of order: %d then %d", entries[0].ID, entries[1].ID)
		}
		if entries[1].Action != string(models.ActionRevoke) {
			t.Errorf("expected revoke last, got %q", entries[1].Action)
		}
	})

	t.Run("entries for user covers both directions", func(t *testing.T) {
		entries, err := store.EntriesForUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to list entries: %v", err)
		}
		// alice is source of the transfer and target of the revoke
		if len(entries) != 2 {
			t.Errorf("expected 2 entries for alice, got %d", len(entries))
		}
	})
}
