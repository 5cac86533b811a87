package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// EnvAdminInitialPassword is the environment variable that sets the
// bootstrap staff account password. If unset, a random password is
// generated and printed once at startup.
const EnvAdminInitialPassword = "CUSTODIA_ADMIN_PASSWORD"

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GetOrGenerateAdminPassword returns the bootstrap password from the
// environment, or generates a random 16-byte hex password.
func GetOrGenerateAdminPassword() (string, error) {
	if password := os.Getenv(EnvAdminInitialPassword); password != "" {
		return password, nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
