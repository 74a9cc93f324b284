package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// AdminKey checks operator keys against a bcrypt hash. A zero AdminKey
// rejects everything.
type AdminKey struct {
	hash []byte
}

// NewAdminKey wraps a bcrypt hash. An empty hash disables operator access.
func NewAdminKey(hash string) *AdminKey {
	return &AdminKey{hash: []byte(hash)}
}

// HashAdminKey produces the hash to configure for key
func HashAdminKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Enabled reports whether a hash is configured
func (a *AdminKey) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Check reports whether key matches the configured hash
func (a *AdminKey) Check(key string) bool {
	if !a.Enabled() || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(key)) == nil
}
