// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

const (
	AccountTypeEmail  = "email"
	AccountTypeGoogle = "google"
)

// Blacklist reasons recorded alongside an invalidated access token.
const (
	ReasonLogout        = "LOGOUT"
	ReasonSecurityEvent = "SECURITY_EVENT"
)

// RefreshToken is one issued, not-yet-consumed refresh credential. The
// opaque token string is globally unique; the store is the sole
// authority on validity. Consumption and logout delete the record,
// bulk revocation flips status without deleting.
type RefreshToken struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Token     string    `db:"token"`
	UserAgent string    `db:"user_agent"`
	IPAddress string    `db:"ip_address"`
	ExpiresAt time.Time `db:"expires_at"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.Status == StatusRevoked
}

func (t *RefreshToken) IsValid() bool {
	return t.Status == StatusActive && !t.IsExpired()
}

// RemainingTime reports how long the token stays usable; zero once
// expired or revoked.
func (t *RefreshToken) RemainingTime() time.Duration {
	if t.IsRevoked() {
		return 0
	}
	remaining := time.Until(t.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
