package auth

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/pkg/errors"
)

// TokenClaims is the unverified payload of a JWT access token, for display
// only. Nothing here takes part in deciding whether a session is valid.
type TokenClaims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    jwtlib.MapClaims
}

// ParseTokenClaims decodes rawToken without checking its signature.
func ParseTokenClaims(rawToken string) (*TokenClaims, error) {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, errors.Wrap(err, "access token is not a JWT")
	}

	tc := &TokenClaims{Claims: claims}
	tc.Subject, _ = claims.GetSubject()
	tc.Issuer, _ = claims.GetIssuer()
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		tc.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	return tc, nil
}

// TokenClaims decodes the stored access token.
func (c *Client) TokenClaims() (*TokenClaims, error) {
	token := c.GetToken()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	return ParseTokenClaims(token)
}
