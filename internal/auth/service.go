// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storyhaven/storyhaven-api/internal/core"
)

// UserInfo is the slice of the user record the auth flows need.
type UserInfo struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Slug         string
	Role         string
	AccountType  string
	Avatar       string
	IsActive     bool
	LastActive   *time.Time
}

// OAuthProfile is the identity payload extracted from a verified
// provider token. GoogleID is stored for traceability only and is
// never used as a lookup key.
type OAuthProfile struct {
	Email       string
	Name        string
	Avatar      string
	AccountType string
	GoogleID    string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	CreateEmailAccount(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	UpsertOAuthAccount(
		ctx context.Context,
		profile OAuthProfile,
		preserveExisting bool,
	) (*UserInfo, error)
	TouchLastActive(ctx context.Context, userID string) error
}

// Service holds no state across calls; everything lives in the
// stores, so every operation is an independent state transition.
type Service struct {
	repo       Repository
	jwt        *JWTManager
	users      UserProvider
	blacklist  BlacklistStore
	refreshTTL time.Duration
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	blacklist BlacklistStore,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		repo:       repo,
		jwt:        jwt,
		users:      users,
		blacklist:  blacklist,
		refreshTTL: refreshTTL,
	}
}

// Register creates an email-type account. No tokens are issued; the
// user logs in separately.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if req.Email == "" || req.Password == "" {
		return ErrEmailPasswordRequired
	}

	if !IsValidEmail(req.Email) {
		return ErrInvalidEmail
	}

	if len(req.Password) < MinPasswordLength {
		return ErrWeakPassword
	}

	if req.Name != "" && !isValidName(req.Name) {
		return ErrNameTooLong
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return ErrEmailExists
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.users.CreateEmailAccount(ctx, req.Email, passwordHash, req.Name); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	client ClientInfo,
) (*AuthResponse, error) {
	if req.Email == "" {
		return nil, ErrInvalidLoginInput
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if user.AccountType == AccountTypeGoogle {
		// Password login is disallowed for OAuth-provisioned accounts;
		// with no password supplied the Google identity stands alone.
		if req.Password != "" {
			return nil, ErrGoogleAccount
		}
	} else {
		valid, newHash, err := core.VerifyPasswordTimingSafe(
			req.Password,
			&user.PasswordHash,
		)
		if err != nil {
			return nil, fmt.Errorf("verify password: %w", err)
		}

		if !valid {
			return nil, ErrInvalidCredentials
		}

		_ = newHash // rehash upgrades are applied on password change only
	}

	return s.createAuthResponse(ctx, user, client)
}

// OAuthLogin reconciles identity by email address regardless of login
// method, creating the account on first sight and refreshing profile
// fields on return visits unless the caller asked to preserve them.
func (s *Service) OAuthLogin(
	ctx context.Context,
	profile OAuthProfile,
	preserveExisting bool,
	client ClientInfo,
) (*AuthResponse, error) {
	if profile.Email == "" {
		return nil, ErrMissingEmail
	}

	if profile.AccountType == "" {
		profile.AccountType = AccountTypeGoogle
	}

	user, err := s.users.UpsertOAuthAccount(ctx, profile, preserveExisting)
	if err != nil {
		return nil, fmt.Errorf("upsert oauth account: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.createAuthResponse(ctx, user, client)
}

// Refresh rotates a refresh token: the consumed record is deleted and
// a fresh pair issued. The delete is the arbiter under concurrency;
// when two requests race on one token only one sees the row.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client ClientInfo,
) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	record, err := s.repo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if record.IsExpired() {
		//nolint:errcheck // stale record removal is best-effort
		_, _ = s.repo.DeleteByToken(ctx, refreshToken)
		return nil, ErrRefreshTokenExpired
	}

	if record.IsRevoked() {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // orphaned record removal is best-effort
			_, _ = s.repo.DeleteByToken(ctx, refreshToken)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		//nolint:errcheck // record removal is best-effort
		_, _ = s.repo.DeleteByToken(ctx, refreshToken)
		return nil, ErrAccountDisabled
	}

	deleted, err := s.repo.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}
	if !deleted {
		// A concurrent request consumed it first.
		return nil, ErrInvalidRefreshToken
	}

	return s.createAuthResponse(ctx, user, client)
}

// Logout is idempotent: it succeeds whether or not either token still
// maps to live state. An access token that fails signature checks is
// already unusable and needs no blacklist entry.
func (s *Service) Logout(
	ctx context.Context,
	accessToken, refreshToken string,
) error {
	if accessToken == "" && refreshToken == "" {
		return ErrMissingToken
	}

	if accessToken != "" {
		claims, err := s.jwt.DecodeToken(accessToken)
		if err == nil {
			if addErr := s.blacklist.Add(
				ctx,
				claims.JTI,
				claims.ExpiresAt,
				ReasonLogout,
			); addErr != nil {
				return fmt.Errorf("blacklist token: %w", addErr)
			}
		}
	}

	if refreshToken != "" {
		if _, err := s.repo.DeleteByToken(ctx, refreshToken); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	}

	return nil
}

// LogoutAll revokes every refresh token the user holds and blacklists
// the presented access token. Intended for security events.
func (s *Service) LogoutAll(
	ctx context.Context,
	userID, accessToken string,
) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if accessToken != "" {
		claims, err := s.jwt.DecodeToken(accessToken)
		if err == nil {
			if addErr := s.blacklist.Add(
				ctx,
				claims.JTI,
				claims.ExpiresAt,
				ReasonSecurityEvent,
			); addErr != nil {
				return fmt.Errorf("blacklist token: %w", addErr)
			}
		}
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	client ClientInfo,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenIdentity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Slug:   user.Slug,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshToken, err := s.repo.Generate(
		ctx,
		user.ID,
		client.UserAgent,
		client.IPAddress,
		s.refreshTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.users.TouchLastActive(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("update last active: %w", err)
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Slug:        u.Slug,
		Role:        u.Role,
		AccountType: u.AccountType,
		Avatar:      AvatarOrDefault(u.Avatar, u.Name),
		IsActive:    u.IsActive,
		LastActive:  u.LastActive,
	}
}
