package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
)

// ValidateCredentials rejects blank credentials before any request is made.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "email is required")
	}
	if password == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "password is required")
	}
	return nil
}
