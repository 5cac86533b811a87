package store

import (
	"context"
	"time"

	"github.com/devenkapadia/custodia/pkg/custody/models"
)

// UserStore defines account operations.
type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (string, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)
}

// RecordStore defines record ownership storage.
//
// SetOwner is an unconditional mutation used only inside the custody
// service; nothing outside that package may call it.
type RecordStore interface {
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	ListRecords(ctx context.Context) ([]*models.Record, error)
	ListRecordsOwnedBy(ctx context.Context, userID string) ([]*models.Record, error)
	CreateRecord(ctx context.Context, record *models.Record) (string, error)
	SetOwner(ctx context.Context, recordID, ownerID string) error
}

// LedgerStore defines the append-only custody ledger. Entries are immutable
// once appended; no update or delete operations exist.
type LedgerStore interface {
	AppendEntry(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error)
	EntriesForRecord(ctx context.Context, recordID string) ([]*models.LedgerEntry, error)
	EntriesForUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error)
	ListEntries(ctx context.Context) ([]*models.LedgerEntry, error)

	// AppendAndSetOwner appends a ledger entry and updates the record owner
	// to entry.ToUserID in a single transaction. Both effects become visible
	// together or not at all.
	AppendAndSetOwner(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error)
}

// Store is the full custody persistence interface.
type Store interface {
	UserStore
	RecordStore
	LedgerStore

	Ping(ctx context.Context) error
	Close() error
}

// Compile-time interface check.
var _ Store = (*GORMStore)(nil)
