package models

import (
	"fmt"
	"time"
)

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser is a regular user who can hold and move record ownership.
	RoleUser UserRole = "user"
	// RoleStaff is a staff member who can read every record and its full
	// ledger, and who manages user accounts.
	RoleStaff UserRole = "staff"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleStaff
}

// User represents a custodia account.
//
// Users own records and appear as participants in ledger entries. The staff
// role bypasses participation-based read checks but grants no special write
// rights on records: only the current owner may transfer and only a past
// transferor may revoke, staff or not.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Enabled      bool       `gorm:"default:true" json:"enabled"`
	Role         string     `gorm:"default:user;size:50" json:"role"` // user, staff
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// IsStaff checks if the user has the staff role.
func (u *User) IsStaff() bool {
	return u.Role == string(RoleStaff)
}

// GetRole returns the user's role as a UserRole type.
func (u *User) GetRole() UserRole {
	return UserRole(u.Role)
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// AdminUsername is the reserved username for the bootstrap staff account.
const AdminUsername = "admin"

// IsAdminUsername checks whether name is the reserved bootstrap account name.
func IsAdminUsername(name string) bool {
	return name == AdminUsername
}

// DefaultStaffUser returns the bootstrap staff account with the given
// password hash. Used on first startup when no staff account exists yet.
func DefaultStaffUser(passwordHash string) *User {
	return &User{
		Username:     AdminUsername,
		PasswordHash: passwordHash,
		Enabled:      true,
		Role:         string(RoleStaff),
		CreatedAt:    time.Now(),
	}
}
