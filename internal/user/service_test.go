// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyhaven/storyhaven-api/internal/auth"
	"github.com/storyhaven/storyhaven-api/internal/core"
)

type fakeRepo struct {
	users map[string]*User // by id
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (f *fakeRepo) Create(_ context.Context, user *User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Slug == user.Slug {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeRepo) GetByEmail(
	_ context.Context,
	email string,
) (*User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (f *fakeRepo) GetBySlug(_ context.Context, slug string) (*User, error) {
	for _, user := range f.users {
		if user.Slug == slug {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get user by slug: %w", core.ErrNotFound)
}

func (f *fakeRepo) Update(_ context.Context, user *User) error {
	if _, ok := f.users[user.ID]; !ok {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeRepo) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	user, ok := f.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeRepo) UpdateLastActive(_ context.Context, id string) error {
	return nil
}

func (f *fakeRepo) ExistsBySlug(
	_ context.Context,
	slug string,
) (bool, error) {
	for _, user := range f.users {
		if user.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id string) error {
	user, ok := f.users[id]
	if !ok {
		return fmt.Errorf("deactivate user: %w", core.ErrNotFound)
	}
	user.IsActive = false
	return nil
}

func (f *fakeRepo) List(
	_ context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	var out []User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func strPtr(s string) *string {
	return &s
}

func seedUser(t *testing.T, repo *fakeRepo, password string) *User {
	t.Helper()

	hash := ""
	if password != "" {
		var err error
		hash, err = core.HashPassword(password)
		require.NoError(t, err)
	}

	accountType := auth.AccountTypeEmail
	if password == "" {
		accountType = auth.AccountTypeGoogle
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        "reader@storyhaven.io",
		PasswordHash: hash,
		Name:         "Reader",
		Slug:         "reader",
		Role:         RoleUser,
		AccountType:  accountType,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUpdateProfileScalars(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)
	user := seedUser(t, repo, "secret123")

	profile, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Name:   strPtr("New Name"),
		Banner: strPtr("https://cdn.example.com/banner.png"),
		Gender: strPtr("other"),
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", profile.Name)
	assert.Equal(t, "https://cdn.example.com/banner.png", profile.Banner)
	assert.Equal(t, "other", profile.Gender)

	// untouched fields survive
	assert.Equal(t, "reader@storyhaven.io", profile.Email)
	assert.Equal(t, "reader", profile.Slug)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	service := NewService(newFakeRepo())

	_, err := service.UpdateProfile(
		context.Background(),
		uuid.New().String(),
		UpdateProfileRequest{Name: strPtr("x")},
	)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestSocialLinkMerge(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)
	user := seedUser(t, repo, "secret123")

	_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Facebook: strPtr("https://facebook.com/reader"),
			Bio:      strPtr("I read a lot"),
		},
	})
	require.NoError(t, err)

	// Updating only bio keeps facebook intact.
	profile, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Bio: strPtr("new bio"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "new bio", profile.Social.Bio)
	assert.Equal(t, "https://facebook.com/reader", profile.Social.Facebook)
}

func TestSocialLinkFlatShape(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)
	user := seedUser(t, repo, "secret123")

	profile, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		SocialLinksInput: SocialLinksInput{
			Twitter: strPtr("https://x.com/reader"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/reader", profile.Social.Twitter)
}

func TestSocialLinkValidation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		input    SocialLinksInput
		wantCode string
	}{
		{
			name:     "wrong domain for facebook",
			input:    SocialLinksInput{Facebook: strPtr("https://evil.com/x")},
			wantCode: "INVALID_FACEBOOK_URL",
		},
		{
			name:     "non-http scheme",
			input:    SocialLinksInput{Twitter: strPtr("ftp://x.com/reader")},
			wantCode: "INVALID_TWITTER_URL",
		},
		{
			name:     "instagram on the wrong host",
			input:    SocialLinksInput{Instagram: strPtr("https://x.com/me")},
			wantCode: "INVALID_INSTAGRAM_URL",
		},
		{
			name:     "youtube wrong host",
			input:    SocialLinksInput{Youtube: strPtr("https://vimeo.com/v")},
			wantCode: "INVALID_YOUTUBE_URL",
		},
		{
			name:     "website missing host",
			input:    SocialLinksInput{Website: strPtr("https://")},
			wantCode: "INVALID_WEBSITE_URL",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			service := NewService(repo)
			user := seedUser(t, repo, "secret123")

			_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
				Social: &tc.input,
			})
			require.Error(t, err)

			appErr, ok := core.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantCode, appErr.Code)
		})
	}
}

func TestSocialLinkAcceptedHosts(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)
	user := seedUser(t, repo, "secret123")

	_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Facebook:  strPtr("https://fb.com/reader"),
			Twitter:   strPtr("https://twitter.com/reader"),
			Youtube:   strPtr("https://youtu.be/abc123"),
			Instagram: strPtr("https://www.instagram.com/reader"),
			Website:   strPtr("https://reader.example.org/books"),
		},
	})
	require.NoError(t, err)
}

func TestSocialLinkClearing(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)
	user := seedUser(t, repo, "secret123")

	_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Facebook: strPtr("https://facebook.com/reader"),
		},
	})
	require.NoError(t, err)

	profile, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Facebook: strPtr(""),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, profile.Social.Facebook)
}

func TestBioTooLong(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)
	user := seedUser(t, repo, "secret123")

	_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Bio: strPtr(strings.Repeat("a", 201)),
		},
	})
	assert.ErrorIs(t, err, ErrBioTooLong)

	_, err = service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Social: &SocialLinksInput{
			Bio: strPtr(strings.Repeat("a", 200)),
		},
	})
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("google account cannot set a password", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)
		user := seedUser(t, repo, "")

		err := service.ChangePassword(ctx, user.ID, "whatever", "newsecret1")
		assert.ErrorIs(t, err, auth.ErrGoogleAccount)
	})

	t.Run("wrong current password", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)
		user := seedUser(t, repo, "secret123")

		err := service.ChangePassword(ctx, user.ID, "wrong", "newsecret1")
		assert.ErrorIs(t, err, ErrInvalidCurrentPassword)
	})

	t.Run("weak new password", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)
		user := seedUser(t, repo, "secret123")

		err := service.ChangePassword(ctx, user.ID, "secret123", "short")
		assert.ErrorIs(t, err, auth.ErrWeakPassword)
	})

	t.Run("success rehashes", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)
		user := seedUser(t, repo, "secret123")

		require.NoError(
			t,
			service.ChangePassword(ctx, user.ID, "secret123", "newsecret1"),
		)

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)

		valid, err := core.VerifyPassword("newsecret1", stored.PasswordHash)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("via profile update requires both fields", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)
		user := seedUser(t, repo, "secret123")

		_, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
			Password: strPtr("newsecret1"),
		})
		assert.ErrorIs(t, err, ErrPasswordFieldsRequired)

		_, err = service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
			Password:        strPtr("newsecret1"),
			CurrentPassword: strPtr("secret123"),
		})
		require.NoError(t, err)
	})
}

func TestCreateEmailAccount(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)

	info, err := service.CreateEmailAccount(
		ctx,
		"New.Reader@Example.com",
		"hash",
		"New Reader",
	)
	require.NoError(t, err)

	assert.Equal(t, "new.reader@example.com", info.Email)
	assert.Equal(t, "new-reader", info.Slug)
	assert.Equal(t, auth.AccountTypeEmail, info.AccountType)
	assert.True(t, info.IsActive)
}

func TestSlugCollision(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	service := NewService(repo)

	first, err := service.CreateEmailAccount(ctx, "a@b.com", "hash", "Reader")
	require.NoError(t, err)
	second, err := service.CreateEmailAccount(ctx, "c@d.com", "hash", "Reader")
	require.NoError(t, err)

	assert.Equal(t, "reader", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "reader-"))
}

func TestUpsertOAuthAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first sight", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)

		info, err := service.UpsertOAuthAccount(ctx, auth.OAuthProfile{
			Email:       "G@Example.com",
			Name:        "G Reader",
			Avatar:      "https://example.com/p.png",
			AccountType: auth.AccountTypeGoogle,
			GoogleID:    "google-sub-1",
		}, false)
		require.NoError(t, err)

		assert.Equal(t, "g@example.com", info.Email)
		assert.Equal(t, auth.AccountTypeGoogle, info.AccountType)
		assert.Equal(t, "g-reader", info.Slug)
	})

	t.Run("backfills a missing slug", func(t *testing.T) {
		repo := newFakeRepo()
		service := NewService(repo)

		legacy := &User{
			ID:          uuid.New().String(),
			Email:       "old@example.com",
			Name:        "Old Timer",
			Slug:        "",
			Role:        RoleUser,
			AccountType: auth.AccountTypeEmail,
			IsActive:    true,
		}
		require.NoError(t, repo.Create(ctx, legacy))

		info, err := service.UpsertOAuthAccount(ctx, auth.OAuthProfile{
			Email:       "old@example.com",
			AccountType: auth.AccountTypeGoogle,
		}, true)
		require.NoError(t, err)
		assert.Equal(t, "old-timer", info.Slug)
	})
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "some-reader", slugify("Some Reader"))
	assert.Equal(t, "caf-crowd", slugify("Café Crowd"))
	assert.Equal(t, "reader", slugify("!!!"))
	assert.Equal(t, "a-b-c", slugify("  a@B//c  "))
}
