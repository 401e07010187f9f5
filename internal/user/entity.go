// AngelaMos | 2026
// entity.go

package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// SocialLinks is the profile's link sub-document, stored as JSONB.
// Empty fields marshal away so the column stays compact.
type SocialLinks struct {
	Bio       string `json:"bio,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
	Website   string `json:"website,omitempty"`
}

func (s SocialLinks) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *SocialLinks) Scan(src any) error {
	if src == nil {
		*s = SocialLinks{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("scan social links: unsupported type %T", src)
	}
}

// User is the identity and profile record. PasswordHash is empty for
// OAuth-provisioned accounts; GoogleID is kept for traceability and is
// never used as a lookup key.
type User struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	PasswordHash string      `db:"password_hash"`
	Name         string      `db:"name"`
	Slug         string      `db:"slug"`
	Role         string      `db:"role"`
	AccountType  string      `db:"account_type"`
	Avatar       string      `db:"avatar"`
	Banner       string      `db:"banner"`
	Gender       string      `db:"gender"`
	Birthday     *time.Time  `db:"birthday"`
	Social       SocialLinks `db:"social"`
	GoogleID     string      `db:"google_id"`
	IsActive     bool        `db:"is_active"`
	LastActive   *time.Time  `db:"last_active"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	DeletedAt    *time.Time  `db:"deleted_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
