// AngelaMos | 2026
// errors.go

package user

import (
	"net/http"

	"github.com/storyhaven/storyhaven-api/internal/core"
)

const MaxBioLength = 200

var (
	ErrBioTooLong = core.BadRequestError(
		"BIO_TOO_LONG",
		"bio must be at most 200 characters",
	)
	ErrInvalidCurrentPassword = core.NewAppError(
		core.ErrUnauthorized,
		"current password is incorrect",
		http.StatusUnauthorized,
		"INVALID_CURRENT_PASSWORD",
	)
	ErrPasswordFieldsRequired = core.BadRequestError(
		"INVALID_INPUT",
		"password and current_password are both required",
	)
)
