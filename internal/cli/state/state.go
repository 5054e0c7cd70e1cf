package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	pkgerrors "ocontest/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenState stores auth token info.
type TokenState struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func Load(path string) (TokenState, error) {
	var st TokenState
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, pkgerrors.Wrapf(err, pkgerrors.StateIOFailed, "read token state failed: %v", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, pkgerrors.Wrapf(err, pkgerrors.StateIOFailed, "parse token state failed: %v", err)
	}
	return st, nil
}

func Save(path string, st TokenState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.StateIOFailed, "create token state dir failed: %v", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.StateIOFailed, "marshal token state failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.StateIOFailed, "write token state failed: %v", err)
	}
	return nil
}

func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, pkgerrors.StateIOFailed, "remove token state failed: %v", err)
	}
	return nil
}

// Claims is what the client can read from a token without the signing key.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token expired before now. Tokens without exp never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes the JWT claims of the access token without verifying the signature.
// The backend owns verification; this is only used to show who is logged in and until when.
func (s TokenState) Inspect() (Claims, error) {
	if s.AccessToken == "" {
		return Claims{}, pkgerrors.New(pkgerrors.TokenInvalid).WithMessage("no access token")
	}
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &registered); err != nil {
		return Claims{}, pkgerrors.Wrapf(err, pkgerrors.TokenInvalid, "access token is not a JWT: %v", err)
	}
	claims := Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

// Masked shortens the access token for display.
func (s TokenState) Masked() string {
	token := s.AccessToken
	if token == "" {
		return "<empty>"
	}
	if len(token) > 12 {
		token = token[:6] + "..." + token[len(token)-4:]
	}
	return token
}
