// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

// SocialLinksInput distinguishes "omitted" from "set to empty": only
// non-nil fields are validated and applied, so a partial update never
// clears links the caller did not mention.
type SocialLinksInput struct {
	Bio       *string `json:"bio,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Youtube   *string `json:"youtube,omitempty"`
	Website   *string `json:"website,omitempty"`
}

// UpdateProfileRequest accepts the social links either nested under
// "social" or as flat top-level fields; the flat shape is applied after
// the nested one when both appear.
type UpdateProfileRequest struct {
	Name     *string           `json:"name,omitempty"     validate:"omitempty,max=20"`
	Avatar   *string           `json:"avatar,omitempty"   validate:"omitempty,max=1024"`
	Banner   *string           `json:"banner,omitempty"   validate:"omitempty,max=1024"`
	Gender   *string           `json:"gender,omitempty"   validate:"omitempty,max=32"`
	Birthday *time.Time        `json:"birthday,omitempty"`
	Social   *SocialLinksInput `json:"social,omitempty"`

	SocialLinksInput // flat alternate shape

	Password        *string `json:"password,omitempty"`
	CurrentPassword *string `json:"current_password,omitempty"`
}

// ProfileResponse is the sanitized public representation.
type ProfileResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Role        string      `json:"role"`
	AccountType string      `json:"account_type"`
	Avatar      string      `json:"avatar"`
	Banner      string      `json:"banner,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	Birthday    *time.Time  `json:"birthday,omitempty"`
	Social      SocialLinks `json:"social"`
	IsActive    bool        `json:"is_active"`
	LastActive  *time.Time  `json:"last_active,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type ListUsersParams struct {
	Search   string
	Role     string
	Page     int
	PageSize int
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
