// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyhaven/storyhaven-api/internal/config"
	"github.com/storyhaven/storyhaven-api/internal/core"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (f *fakeTokenRepo) Generate(
	_ context.Context,
	userID, userAgent, ipAddress string,
	ttl time.Duration,
) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	opaque, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	token := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     opaque,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().Add(ttl),
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	f.tokens[token.Token] = token
	return token, nil
}

func (f *fakeTokenRepo) FindByToken(
	_ context.Context,
	token string,
) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.tokens[token]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (f *fakeTokenRepo) FindByID(
	_ context.Context,
	id string,
) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.tokens {
		if record.ID == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
}

func (f *fakeTokenRepo) DeleteByToken(
	_ context.Context,
	token string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tokens[token]; !ok {
		return false, nil
	}
	delete(f.tokens, token)
	return true, nil
}

func (f *fakeTokenRepo) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, record := range f.tokens {
		if record.ID == id {
			delete(f.tokens, key)
			return nil
		}
	}
	return fmt.Errorf("delete refresh token: %w", core.ErrNotFound)
}

func (f *fakeTokenRepo) DeleteAllForUser(
	_ context.Context,
	userID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, record := range f.tokens {
		if record.UserID == userID {
			delete(f.tokens, key)
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(
	_ context.Context,
	userID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.tokens {
		if record.UserID == userID && record.Status == StatusActive {
			record.Status = StatusRevoked
		}
	}
	return nil
}

func (f *fakeTokenRepo) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sessions []RefreshToken
	for _, record := range f.tokens {
		if record.UserID == userID && record.IsValid() {
			sessions = append(sessions, *record)
		}
	}
	return sessions, nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for key, record := range f.tokens {
		if record.IsExpired() {
			delete(f.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTokenRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeUserProvider struct {
	mu      sync.Mutex
	byEmail map[string]*UserInfo
	touched []string
}

func newFakeUserProvider() *fakeUserProvider {
	return &fakeUserProvider{byEmail: make(map[string]*UserInfo)}
}

func (f *fakeUserProvider) add(u *UserInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[u.Email] = u
}

func (f *fakeUserProvider) GetByEmail(
	_ context.Context,
	email string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserProvider) GetByID(
	_ context.Context,
	id string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.byEmail {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUserProvider) CreateEmailAccount(
	_ context.Context,
	email, passwordHash, name string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byEmail[email]; ok {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	user := &UserInfo{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Slug:         "slug-" + name,
		Role:         "user",
		AccountType:  AccountTypeEmail,
		IsActive:     true,
	}
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUserProvider) UpsertOAuthAccount(
	_ context.Context,
	profile OAuthProfile,
	preserveExisting bool,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.byEmail[profile.Email]; ok {
		if !preserveExisting {
			if profile.Name != "" {
				existing.Name = profile.Name
			}
			if profile.Avatar != "" {
				existing.Avatar = profile.Avatar
			}
		}
		existing.AccountType = profile.AccountType
		copied := *existing
		return &copied, nil
	}

	user := &UserInfo{
		ID:          uuid.New().String(),
		Email:       profile.Email,
		Name:        profile.Name,
		Slug:        "slug-" + profile.Name,
		Role:        "user",
		AccountType: profile.AccountType,
		Avatar:      profile.Avatar,
		IsActive:    true,
	}
	f.byEmail[profile.Email] = user
	return user, nil
}

func (f *fakeUserProvider) TouchLastActive(
	_ context.Context,
	userID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, userID)
	return nil
}

type fakeBlacklist struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{entries: make(map[string]string)}
}

func (f *fakeBlacklist) Add(
	_ context.Context,
	jti string,
	expiresAt time.Time,
	reason string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if time.Until(expiresAt) <= 0 {
		return nil
	}
	f.entries[jti] = reason
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(
	_ context.Context,
	jti string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.entries[jti]
	return ok, nil
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key, err := jwk.Import(rawKey)
	require.NoError(t, err)

	manager, err := NewJWTManagerFromKey(key, config.JWTConfig{
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: time.Hour,
		Issuer:             "storyhaven",
		Audience:           "storyhaven-api",
	})
	require.NoError(t, err)

	return manager
}

type testEnv struct {
	service   *Service
	repo      *fakeTokenRepo
	users     *fakeUserProvider
	blacklist *fakeBlacklist
	jwt       *JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeTokenRepo()
	users := newFakeUserProvider()
	blacklist := newFakeBlacklist()
	manager := newTestJWTManager(t)

	return &testEnv{
		service:   NewService(repo, manager, users, blacklist, time.Hour),
		repo:      repo,
		users:     users,
		blacklist: blacklist,
		jwt:       manager,
	}
}

func (e *testEnv) addEmailUser(t *testing.T, email, password string) *UserInfo {
	t.Helper()

	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	user := &UserInfo{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Test Reader",
		Slug:         "test-reader",
		Role:         "user",
		AccountType:  AccountTypeEmail,
		IsActive:     true,
	}
	e.users.add(user)
	return user
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Register(ctx, RegisterRequest{})
		assert.ErrorIs(t, err, ErrEmailPasswordRequired)

		err = env.service.Register(ctx, RegisterRequest{Email: "a@b.com"})
		assert.ErrorIs(t, err, ErrEmailPasswordRequired)

		err = env.service.Register(ctx, RegisterRequest{Password: "secret123"})
		assert.ErrorIs(t, err, ErrEmailPasswordRequired)
	})

	t.Run("invalid email", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Register(ctx, RegisterRequest{
			Email:    "not-an-email",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("weak password", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Register(ctx, RegisterRequest{
			Email:    "a@b.com",
			Password: "short",
		})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("name too long", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Register(ctx, RegisterRequest{
			Email:    "a@b.com",
			Password: "secret123",
			Name:     "this display name is way over twenty characters",
		})
		assert.ErrorIs(t, err, ErrNameTooLong)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "taken@b.com", "secret123")

		err := env.service.Register(ctx, RegisterRequest{
			Email:    "taken@b.com",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("success stores a hash, not the password", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Register(ctx, RegisterRequest{
			Email:    "new@b.com",
			Password: "secret123",
			Name:     "Newbie",
		})
		require.NoError(t, err)

		stored, err := env.users.GetByEmail(ctx, "new@b.com")
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", stored.PasswordHash)

		valid, err := core.VerifyPassword("secret123", stored.PasswordHash)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("no tokens are issued", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Register(ctx, RegisterRequest{
			Email:    "new@b.com",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.Zero(t, env.repo.count())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{UserAgent: "test-agent", IPAddress: "10.0.0.1"}

	t.Run("missing email", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.service.Login(ctx, LoginRequest{Password: "x"}, client)
		assert.ErrorIs(t, err, ErrInvalidLoginInput)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.service.Login(ctx, LoginRequest{
			Email:    "nobody@b.com",
			Password: "secret123",
		}, client)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "a@b.com", "secret123")

		_, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "wrong-password",
		}, client)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addEmailUser(t, "a@b.com", "secret123")
		user.IsActive = false
		env.users.add(user)

		_, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "secret123",
		}, client)
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})

	t.Run("google account rejects password login", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.add(&UserInfo{
			ID:          uuid.New().String(),
			Email:       "g@b.com",
			AccountType: AccountTypeGoogle,
			IsActive:    true,
		})

		_, err := env.service.Login(ctx, LoginRequest{
			Email:    "g@b.com",
			Password: "anything",
		}, client)
		assert.ErrorIs(t, err, ErrGoogleAccount)
	})

	t.Run("google account without password succeeds", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.add(&UserInfo{
			ID:          uuid.New().String(),
			Email:       "g@b.com",
			Name:        "G Reader",
			AccountType: AccountTypeGoogle,
			IsActive:    true,
		})

		resp, err := env.service.Login(ctx, LoginRequest{
			Email: "g@b.com",
		}, client)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
	})

	t.Run("email account with empty password fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "a@b.com", "secret123")

		_, err := env.service.Login(ctx, LoginRequest{
			Email: "a@b.com",
		}, client)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success issues a verifiable pair", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.addEmailUser(t, "a@b.com", "secret123")

		resp, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "secret123",
		}, client)
		require.NoError(t, err)

		assert.Equal(t, "Bearer", resp.Tokens.TokenType)
		assert.Equal(t, user.Email, resp.User.Email)

		claims, err := env.jwt.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
		assert.NotEmpty(t, claims.JTI)

		record, err := env.repo.FindByToken(ctx, resp.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, record.UserID)
		assert.Equal(t, "test-agent", record.UserAgent)
		assert.Equal(t, "10.0.0.1", record.IPAddress)

		assert.Contains(t, env.users.touched, user.ID)
	})

	t.Run("each issuance carries a distinct jti", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "a@b.com", "secret123")

		req := LoginRequest{Email: "a@b.com", Password: "secret123"}

		first, err := env.service.Login(ctx, req, client)
		require.NoError(t, err)
		second, err := env.service.Login(ctx, req, client)
		require.NoError(t, err)

		c1, err := env.jwt.VerifyAccessToken(ctx, first.Tokens.AccessToken)
		require.NoError(t, err)
		c2, err := env.jwt.VerifyAccessToken(ctx, second.Tokens.AccessToken)
		require.NoError(t, err)

		assert.NotEqual(t, c1.JTI, c2.JTI)
		assert.NotEqual(
			t,
			first.Tokens.RefreshToken,
			second.Tokens.RefreshToken,
		)
	})
}

func TestOAuthLogin(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	t.Run("missing email", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.service.OAuthLogin(ctx, OAuthProfile{}, false, client)
		assert.ErrorIs(t, err, ErrMissingEmail)
	})

	t.Run("first login creates the account", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.service.OAuthLogin(ctx, OAuthProfile{
			Email:  "new@b.com",
			Name:   "New Reader",
			Avatar: "https://example.com/pic.png",
		}, false, client)
		require.NoError(t, err)

		assert.Equal(t, AccountTypeGoogle, resp.User.AccountType)
		assert.NotEmpty(t, resp.Tokens.AccessToken)

		stored, err := env.users.GetByEmail(ctx, "new@b.com")
		require.NoError(t, err)
		assert.Equal(t, "New Reader", stored.Name)
	})

	t.Run("return visit refreshes profile fields", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.add(&UserInfo{
			ID:          uuid.New().String(),
			Email:       "back@b.com",
			Name:        "Old Name",
			AccountType: AccountTypeEmail,
			IsActive:    true,
		})

		_, err := env.service.OAuthLogin(ctx, OAuthProfile{
			Email: "back@b.com",
			Name:  "Fresh Name",
		}, false, client)
		require.NoError(t, err)

		stored, err := env.users.GetByEmail(ctx, "back@b.com")
		require.NoError(t, err)
		assert.Equal(t, "Fresh Name", stored.Name)
		assert.Equal(t, AccountTypeGoogle, stored.AccountType)
	})

	t.Run("preserve flag keeps existing fields", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.add(&UserInfo{
			ID:          uuid.New().String(),
			Email:       "back@b.com",
			Name:        "Old Name",
			AccountType: AccountTypeEmail,
			IsActive:    true,
		})

		_, err := env.service.OAuthLogin(ctx, OAuthProfile{
			Email: "back@b.com",
			Name:  "Fresh Name",
		}, true, client)
		require.NoError(t, err)

		stored, err := env.users.GetByEmail(ctx, "back@b.com")
		require.NoError(t, err)
		assert.Equal(t, "Old Name", stored.Name)
		assert.Equal(t, AccountTypeGoogle, stored.AccountType)
	})

	t.Run("disabled account cannot oauth in", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.add(&UserInfo{
			ID:          uuid.New().String(),
			Email:       "off@b.com",
			AccountType: AccountTypeGoogle,
			IsActive:    false,
		})

		_, err := env.service.OAuthLogin(ctx, OAuthProfile{
			Email: "off@b.com",
		}, false, client)
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	login := func(t *testing.T, env *testEnv) (*UserInfo, *AuthResponse) {
		t.Helper()
		user := env.addEmailUser(t, "a@b.com", "secret123")
		resp, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "secret123",
		}, client)
		require.NoError(t, err)
		return user, resp
	}

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.service.Refresh(ctx, "", client)
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.service.Refresh(ctx, "no-such-token", client)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("rotation consumes the old token", func(t *testing.T) {
		env := newTestEnv(t)
		user, first := login(t, env)

		second, err := env.service.Refresh(
			ctx,
			first.Tokens.RefreshToken,
			client,
		)
		require.NoError(t, err)
		assert.Equal(t, user.ID, second.User.ID)
		assert.NotEqual(
			t,
			first.Tokens.RefreshToken,
			second.Tokens.RefreshToken,
		)

		// The consumed token is gone; replaying it fails.
		_, err = env.service.Refresh(ctx, first.Tokens.RefreshToken, client)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)

		// The new token is live.
		_, err = env.service.Refresh(ctx, second.Tokens.RefreshToken, client)
		require.NoError(t, err)
	})

	t.Run("expired token is rejected and deleted", func(t *testing.T) {
		env := newTestEnv(t)
		_, first := login(t, env)

		env.repo.mu.Lock()
		env.repo.tokens[first.Tokens.RefreshToken].ExpiresAt =
			time.Now().Add(-time.Minute)
		env.repo.mu.Unlock()

		_, err := env.service.Refresh(ctx, first.Tokens.RefreshToken, client)
		assert.ErrorIs(t, err, ErrRefreshTokenExpired)
		assert.Zero(t, env.repo.count())
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		user, first := login(t, env)

		require.NoError(t, env.repo.RevokeAllForUser(ctx, user.ID))

		_, err := env.service.Refresh(ctx, first.Tokens.RefreshToken, client)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("disabled user cannot refresh", func(t *testing.T) {
		env := newTestEnv(t)
		user, first := login(t, env)

		user.IsActive = false
		env.users.add(user)

		_, err := env.service.Refresh(ctx, first.Tokens.RefreshToken, client)
		assert.ErrorIs(t, err, ErrAccountDisabled)
		assert.Zero(t, env.repo.count())
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	t.Run("both tokens absent", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Logout(ctx, "", "")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("access token lands on the blacklist", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "a@b.com", "secret123")

		resp, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "secret123",
		}, client)
		require.NoError(t, err)

		claims, err := env.jwt.DecodeToken(resp.Tokens.AccessToken)
		require.NoError(t, err)

		require.NoError(
			t,
			env.service.Logout(ctx, resp.Tokens.AccessToken, ""),
		)

		revoked, err := env.blacklist.IsBlacklisted(ctx, claims.JTI)
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.Equal(t, ReasonLogout, env.blacklist.entries[claims.JTI])
	})

	t.Run("garbage access token is swallowed", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.service.Logout(ctx, "not.a.jwt", "")
		require.NoError(t, err)
		assert.Empty(t, env.blacklist.entries)
	})

	t.Run("refresh token record is deleted", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "a@b.com", "secret123")

		resp, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "secret123",
		}, client)
		require.NoError(t, err)

		require.NoError(
			t,
			env.service.Logout(ctx, "", resp.Tokens.RefreshToken),
		)
		assert.Zero(t, env.repo.count())
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		env := newTestEnv(t)
		env.addEmailUser(t, "a@b.com", "secret123")

		resp, err := env.service.Login(ctx, LoginRequest{
			Email:    "a@b.com",
			Password: "secret123",
		}, client)
		require.NoError(t, err)

		require.NoError(t, env.service.Logout(
			ctx,
			resp.Tokens.AccessToken,
			resp.Tokens.RefreshToken,
		))
		require.NoError(t, env.service.Logout(
			ctx,
			resp.Tokens.AccessToken,
			resp.Tokens.RefreshToken,
		))
	})
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	env := newTestEnv(t)
	user := env.addEmailUser(t, "a@b.com", "secret123")

	req := LoginRequest{Email: "a@b.com", Password: "secret123"}
	first, err := env.service.Login(ctx, req, client)
	require.NoError(t, err)
	second, err := env.service.Login(ctx, req, client)
	require.NoError(t, err)

	require.NoError(
		t,
		env.service.LogoutAll(ctx, user.ID, first.Tokens.AccessToken),
	)

	_, err = env.service.Refresh(ctx, first.Tokens.RefreshToken, client)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = env.service.Refresh(ctx, second.Tokens.RefreshToken, client)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	claims, err := env.jwt.DecodeToken(first.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, ReasonSecurityEvent, env.blacklist.entries[claims.JTI])
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	env := newTestEnv(t)
	user := env.addEmailUser(t, "a@b.com", "secret123")
	other := env.addEmailUser(t, "other@b.com", "secret123")

	resp, err := env.service.Login(ctx, LoginRequest{
		Email:    "a@b.com",
		Password: "secret123",
	}, client)
	require.NoError(t, err)

	record, err := env.repo.FindByToken(ctx, resp.Tokens.RefreshToken)
	require.NoError(t, err)

	t.Run("cannot revoke another user's session", func(t *testing.T) {
		err := env.service.RevokeSession(ctx, other.ID, record.ID)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("owner revokes own session", func(t *testing.T) {
		require.NoError(t, env.service.RevokeSession(ctx, user.ID, record.ID))
		assert.Zero(t, env.repo.count())
	})

	t.Run("unknown session", func(t *testing.T) {
		err := env.service.RevokeSession(ctx, user.ID, uuid.New().String())
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestGetActiveSessions(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	user := env.addEmailUser(t, "a@b.com", "secret123")

	req := LoginRequest{Email: "a@b.com", Password: "secret123"}
	_, err := env.service.Login(ctx, req, ClientInfo{UserAgent: "ua-1"})
	require.NoError(t, err)
	_, err = env.service.Login(ctx, req, ClientInfo{UserAgent: "ua-2"})
	require.NoError(t, err)

	sessions, err := env.service.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	client := ClientInfo{}

	env := newTestEnv(t)
	env.addEmailUser(t, "a@b.com", "secret123")

	resp, err := env.service.Login(ctx, LoginRequest{
		Email:    "a@b.com",
		Password: "secret123",
	}, client)
	require.NoError(t, err)

	const racers = 8
	results := make(chan error, racers)

	var wg sync.WaitGroup
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.Refresh(
				ctx,
				resp.Tokens.RefreshToken,
				client,
			)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, ErrInvalidRefreshToken))
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one racer may consume the token")
}
