// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/storyhaven/storyhaven-api/internal/auth"
	"github.com/storyhaven/storyhaven-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByEmail adapts the user record for the auth flows.
func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) CreateEmailAccount(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	if name == "" {
		name = displayNameFromEmail(email)
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Slug:         slug,
		Role:         RoleUser,
		AccountType:  auth.AccountTypeEmail,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// UpsertOAuthAccount creates the account on first sight of an email and
// refreshes provider-supplied fields on return visits. The preserve
// flag skips the name/avatar overwrite; account type and the slug
// backfill always apply.
func (s *Service) UpsertOAuthAccount(
	ctx context.Context,
	profile auth.OAuthProfile,
	preserveExisting bool,
) (*auth.UserInfo, error) {
	email := strings.ToLower(profile.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return s.createOAuthAccount(ctx, email, profile)
	}

	if !preserveExisting {
		if profile.Name != "" {
			existing.Name = profile.Name
		}
		if profile.Avatar != "" {
			existing.Avatar = profile.Avatar
		}
	}

	existing.AccountType = profile.AccountType

	if profile.GoogleID != "" {
		existing.GoogleID = profile.GoogleID
	}

	if existing.Slug == "" {
		slug, slugErr := s.uniqueSlug(ctx, existing.Name)
		if slugErr != nil {
			return nil, slugErr
		}
		existing.Slug = slug
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	return toUserInfo(existing), nil
}

func (s *Service) createOAuthAccount(
	ctx context.Context,
	email string,
	profile auth.OAuthProfile,
) (*auth.UserInfo, error) {
	name := profile.Name
	if name == "" {
		name = displayNameFromEmail(email)
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:          uuid.New().String(),
		Email:       email,
		Name:        name,
		Slug:        slug,
		Role:        RoleUser,
		AccountType: profile.AccountType,
		Avatar:      profile.Avatar,
		GoogleID:    profile.GoogleID,
		IsActive:    true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) TouchLastActive(ctx context.Context, userID string) error {
	return s.repo.UpdateLastActive(ctx, userID)
}

func (s *Service) GetProfile(
	ctx context.Context,
	userID string,
) (*ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	resp := toProfileResponse(user)
	return &resp, nil
}

func (s *Service) GetProfileBySlug(
	ctx context.Context,
	slug string,
) (*ProfileResponse, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	resp := toProfileResponse(user)
	return &resp, nil
}

// UpdateProfile applies a partial profile mutation. Scalar fields and
// each social link are handled independently; anything the request
// omits keeps its prior value. A password pair in the body runs the
// full password-change flow as part of the same call.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Banner != nil {
		user.Banner = *req.Banner
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Birthday != nil {
		user.Birthday = req.Birthday
	}

	if req.Social != nil {
		if err := applySocial(&user.Social, *req.Social); err != nil {
			return nil, err
		}
	}

	// flat shape wins when both forms carry the same field
	if err := applySocial(&user.Social, req.SocialLinksInput); err != nil {
		return nil, err
	}

	if req.Password != nil || req.CurrentPassword != nil {
		if req.Password == nil || req.CurrentPassword == nil {
			return nil, ErrPasswordFieldsRequired
		}
		if err := s.changePassword(ctx, user, *req.CurrentPassword, *req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	resp := toProfileResponse(user)
	return &resp, nil
}

// ChangePassword satisfies the auth handler's PasswordChanger.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return auth.ErrUserNotFound
		}
		return err
	}

	return s.changePassword(ctx, user, currentPassword, newPassword)
}

func (s *Service) changePassword(
	ctx context.Context,
	user *User,
	currentPassword, newPassword string,
) error {
	if user.AccountType == auth.AccountTypeGoogle {
		return auth.ErrGoogleAccount
	}

	valid, err := core.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCurrentPassword
	}

	if len(newPassword) < auth.MinPasswordLength {
		return auth.ErrWeakPassword
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}

	user.PasswordHash = passwordHash
	return nil
}

func (s *Service) Deactivate(ctx context.Context, userID string) error {
	return s.repo.Deactivate(ctx, userID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// applySocial validates and copies every field the input actually set.
func applySocial(dst *SocialLinks, in SocialLinksInput) error {
	if in.Bio != nil {
		if err := validateBio(*in.Bio); err != nil {
			return err
		}
		dst.Bio = *in.Bio
	}
	if in.Facebook != nil {
		if err := validatePlatformURL("facebook", *in.Facebook); err != nil {
			return err
		}
		dst.Facebook = *in.Facebook
	}
	if in.Twitter != nil {
		if err := validatePlatformURL("twitter", *in.Twitter); err != nil {
			return err
		}
		dst.Twitter = *in.Twitter
	}
	if in.Instagram != nil {
		if err := validatePlatformURL("instagram", *in.Instagram); err != nil {
			return err
		}
		dst.Instagram = *in.Instagram
	}
	if in.Youtube != nil {
		if err := validatePlatformURL("youtube", *in.Youtube); err != nil {
			return err
		}
		dst.Youtube = *in.Youtube
	}
	if in.Website != nil {
		if err := validatePlatformURL("website", *in.Website); err != nil {
			return err
		}
		dst.Website = *in.Website
	}
	return nil
}

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := strings.ToLower(name)
	slug = slugStripPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "reader"
	}
	return slug
}

// uniqueSlug derives a URL-safe slug from the display name, appending
// a short random suffix on collision.
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)

	exists, err := s.repo.ExistsBySlug(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}

	for range 3 {
		candidate := base + "-" + uuid.New().String()[:8]

		exists, err := s.repo.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("generate slug: exhausted attempts for %q", base)
}

func displayNameFromEmail(email string) string {
	name, _, found := strings.Cut(email, "@")
	if !found || name == "" {
		return "Reader"
	}
	return name
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Slug:         u.Slug,
		Role:         u.Role,
		AccountType:  u.AccountType,
		Avatar:       u.Avatar,
		IsActive:     u.IsActive,
		LastActive:   u.LastActive,
	}
}

func toProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Slug:        u.Slug,
		Role:        u.Role,
		AccountType: u.AccountType,
		Avatar:      auth.AvatarOrDefault(u.Avatar, u.Name),
		Banner:      u.Banner,
		Gender:      u.Gender,
		Birthday:    u.Birthday,
		Social:      u.Social,
		IsActive:    u.IsActive,
		LastActive:  u.LastActive,
		CreatedAt:   u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
var _ auth.PasswordChanger = (*Service)(nil)
