package models

import "time"

// Record is a logical file record whose ownership is tracked by the ledger.
//
// A record has exactly one owner at any instant. OwnerID is mutated only by
// the custody service as the second half of a successful transfer or revoke;
// nothing else in the system writes it. CreatedAt is set once at creation
// and never changes.
//
// Raw file content is out of scope: a record carries a name and provenance,
// nothing else.
type Record struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	OwnerID   string    `gorm:"not null;size:36;index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Record.
func (Record) TableName() string {
	return "records"
}
