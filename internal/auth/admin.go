package auth

import (
	"strings"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/config"
)

// Admin checks administrator credentials configured through the environment
type Admin struct {
	username string
	hash     string
	password string
	hasher   *BcryptHasher
}

// NewAdmin creates an admin checker. A bcrypt hash takes precedence over a plain password.
func NewAdmin(cfg config.AuthConfig, hasher *BcryptHasher) *Admin {
	return &Admin{
		username: cfg.AdminUsername,
		hash:     cfg.AdminPasswordHash,
		password: cfg.AdminPassword,
		hasher:   hasher,
	}
}

// Enabled reports whether admin login is possible
func (a *Admin) Enabled() bool {
	return a.hash != "" || a.password != ""
}

// Username returns the configured admin username
func (a *Admin) Username() string {
	return a.username
}

// Check verifies admin credentials.
func (a *Admin) Check(username, password string) error {
	if !a.Enabled() {
		return apperr.Auth("admin login is disabled")
	}

	userOK := constantTimeEqual(strings.TrimSpace(username), a.username)
	var passOK bool
	if a.hash != "" {
		passOK = a.hasher.Verify(a.hash, password)
	} else {
		passOK = constantTimeEqual(password, a.password)
	}

	if !userOK || !passOK {
		return apperr.Auth("invalid credentials")
	}
	return nil
}
