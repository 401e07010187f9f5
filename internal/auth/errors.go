// AngelaMos | 2026
// errors.go

package auth

import (
	"net/http"

	"github.com/storyhaven/storyhaven-api/internal/core"
)

// Stable machine-readable failures for the auth flows. The HTTP layer
// renders these as {code, message}; anything not listed here surfaces
// as a generic server error.
var (
	ErrEmailPasswordRequired = core.BadRequestError(
		"EMAIL_PASSWORD_REQUIRED",
		"email and password are required",
	)
	ErrInvalidEmail = core.BadRequestError(
		"INVALID_EMAIL",
		"email address is not valid",
	)
	ErrWeakPassword = core.BadRequestError(
		"WEAK_PASSWORD",
		"password must be at least 8 characters",
	)
	ErrNameTooLong = core.BadRequestError(
		"NAME_TOO_LONG",
		"name must be at most 20 characters",
	)
	ErrEmailExists = core.ConflictError(
		"EMAIL_EXISTS",
		"an account with this email already exists",
	)

	ErrInvalidLoginInput = core.BadRequestError(
		"INVALID_INPUT",
		"email and password are required",
	)
	ErrInvalidCredentials = core.NewAppError(
		core.ErrUnauthorized,
		"invalid email or password",
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
	)
	ErrAccountDisabled = core.NewAppError(
		core.ErrForbidden,
		"this account has been disabled",
		http.StatusForbidden,
		"ACCOUNT_DISABLED",
	)
	ErrGoogleAccount = core.BadRequestError(
		"GOOGLE_ACCOUNT",
		"this account uses Google sign-in",
	)

	ErrMissingEmail = core.BadRequestError(
		"MISSING_EMAIL",
		"email is required",
	)

	ErrMissingToken = core.BadRequestError(
		"MISSING_TOKEN",
		"a token is required",
	)
	ErrInvalidRefreshToken = core.NewAppError(
		core.ErrTokenInvalid,
		"refresh token is invalid",
		http.StatusUnauthorized,
		"INVALID_TOKEN",
	)
	ErrRefreshTokenExpired = core.NewAppError(
		core.ErrTokenExpired,
		"refresh token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
	ErrUserNotFound = core.NotFoundError(
		"USER_NOT_FOUND",
		"user not found",
	)
)
