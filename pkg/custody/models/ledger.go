package models

import "time"

// Action is the kind of custody change recorded by a ledger entry.
type Action string

const (
	// ActionTransfer moves ownership from the current owner to another user.
	ActionTransfer Action = "transfer"
	// ActionRevoke returns ownership to a user who previously transferred
	// the record away.
	ActionRevoke Action = "revoke"
)

// IsValid checks if the action is one of the two custody actions.
func (a Action) IsValid() bool {
	return a == ActionTransfer || a == ActionRevoke
}

// LedgerEntry is one custody change of a record.
//
// The ledger is append-only: entries are never updated or deleted, and no
// code path in this repository does so. The autoincrement ID gives a stable
// total order by creation time even when timestamps collide at clock
// resolution; the ordered ledger of a record is the full provenance of its
// ownership.
type LedgerEntry struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID   string    `gorm:"not null;size:36;index" json:"record_id"`
	Record     *Record   `gorm:"foreignKey:RecordID" json:"record,omitempty"`
	FromUserID string    `gorm:"not null;size:36;index" json:"from_user_id"`
	FromUser   *User     `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUserID   string    `gorm:"not null;size:36;index" json:"to_user_id"`
	ToUser     *User     `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
	Action     string    `gorm:"not null;size:20" json:"action"`
	Timestamp  time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

// TableName returns the table name for LedgerEntry.
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Involves checks whether the user appears on either side of the entry.
func (e *LedgerEntry) Involves(userID string) bool {
	return e.FromUserID == userID || e.ToUserID == userID
}
