package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenClaims are the claims OpenShred's API server puts into the bearer
// tokens it issues.
type TokenClaims struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// ParseTokenClaims reads the claims of a bearer token WITHOUT verifying its
// signature. The client cannot verify tokens; only the API server can. The
// claims are therefore only fit for display and for recovering the user ID
// from a token, never for deciding whether the session is valid.
func ParseTokenClaims(token string) (TokenClaims, error) {
	claims := struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
		jwt.RegisteredClaims
	}{}
	if _, _, err :=
		jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, errors.Wrap(err, "error parsing token")
	}
	tokenClaims := TokenClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	}
	if claims.ExpiresAt != nil {
		tokenClaims.ExpiresAt = claims.ExpiresAt.Time
	}
	return tokenClaims, nil
}
