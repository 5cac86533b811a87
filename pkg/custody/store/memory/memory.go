// Package memory provides an in-memory implementation of the custody Store.
//
// It backs unit tests and ephemeral deployments; state is lost on process
// exit. All methods are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// Store is an in-memory custody store.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*models.User   // by id
	records map[string]*models.Record // by id
	ledger  []*models.LedgerEntry     // append order == id order
	nextID  uint
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[string]*models.User),
		records: make(map[string]*models.Record),
		nextID:  1,
	}
}

// ============================================
// Users
// ============================================

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return "", models.ErrDuplicateUser
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = copyUser(user)
	return user.ID, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return models.ErrUserNotFound
	}
	existing.Username = user.Username
	existing.Enabled = user.Enabled
	existing.Role = user.Role
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.Username == username {
			delete(s.users, id)
			return nil
		}
	}
	return models.ErrUserNotFound
}

func (s *Store) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return models.ErrUserNotFound
}

func (s *Store) UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			ts := timestamp
			u.LastLogin = &ts
			return nil
		}
	}
	return models.ErrUserNotFound
}

func (s *Store) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, models.ErrUserDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// ============================================
// Records
// ============================================

func (s *Store) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRecordLocked(id)
}

func (s *Store) getRecordLocked(id string) (*models.Record, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return s.copyRecordLocked(r), nil
}

func (s *Store) ListRecords(ctx context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*models.Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, s.copyRecordLocked(r))
	}
	sortRecords(records)
	return records, nil
}

func (s *Store) ListRecordsOwnedBy(ctx context.Context, userID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := []*models.Record{}
	for _, r := range s.records {
		if r.OwnerID == userID {
			records = append(records, s.copyRecordLocked(r))
		}
	}
	sortRecords(records)
	return records, nil
}

func (s *Store) CreateRecord(ctx context.Context, record *models.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if _, exists := s.records[record.ID]; exists {
		return "", models.ErrDuplicateRecord
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	stored := *record
	stored.Owner = nil
	s.records[record.ID] = &stored
	return record.ID, nil
}

func (s *Store) SetOwner(ctx context.Context, recordID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok {
		return models.ErrRecordNotFound
	}
	r.OwnerID = ownerID
	return nil
}

// ============================================
// Ledger
// ============================================

func (s *Store) AppendEntry(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(entry)
}

func (s *Store) appendLocked(entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	stored := *entry
	stored.ID = s.nextID
	s.nextID++
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}
	stored.Record, stored.FromUser, stored.ToUser = nil, nil, nil
	s.ledger = append(s.ledger, &stored)
	entry.ID = stored.ID
	entry.Timestamp = stored.Timestamp
	return s.copyEntryLocked(&stored), nil
}

func (s *Store) EntriesForRecord(ctx context.Context, recordID string) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := []*models.LedgerEntry{}
	for _, e := range s.ledger {
		if e.RecordID == recordID {
			entries = append(entries, s.copyEntryLocked(e))
		}
	}
	return entries, nil
}

func (s *Store) EntriesForUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := []*models.LedgerEntry{}
	for _, e := range s.ledger {
		if e.Involves(userID) {
			entries = append(entries, s.copyEntryLocked(e))
		}
	}
	return entries, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*models.LedgerEntry, 0, len(s.ledger))
	for _, e := range s.ledger {
		entries = append(entries, s.copyEntryLocked(e))
	}
	return entries, nil
}

func (s *Store) AppendAndSetOwner(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[entry.RecordID]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	appended, err := s.appendLocked(entry)
	if err != nil {
		return nil, err
	}
	r.OwnerID = entry.ToUserID
	return appended, nil
}

// ============================================
// Lifecycle
// ============================================

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ============================================
// Copy helpers
//
// Stored structs are never handed out directly; callers get snapshots with
// associations resolved, matching what the GORM store preloads.
// ============================================

func copyUser(u *models.User) *models.User {
	c := *u
	if u.LastLogin != nil {
		ts := *u.LastLogin
		c.LastLogin = &ts
	}
	return &c
}

func (s *Store) copyRecordLocked(r *models.Record) *models.Record {
	c := *r
	if owner, ok := s.users[r.OwnerID]; ok {
		c.Owner = copyUser(owner)
	}
	return &c
}

func (s *Store) copyEntryLocked(e *models.LedgerEntry) *models.LedgerEntry {
	c := *e
	if r, ok := s.records[e.RecordID]; ok {
		c.Record = s.copyRecordLocked(r)
	}
	if u, ok := s.users[e.FromUserID]; ok {
		c.FromUser = copyUser(u)
	}
	if u, ok := s.users[e.ToUserID]; ok {
		c.ToUser = copyUser(u)
	}
	return &c
}

func sortRecords(records []*models.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
