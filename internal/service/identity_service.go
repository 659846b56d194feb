package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realtime-threads/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved owner of a credential.
type Identity struct {
	UserID      uint
	ExternalID  string
	DisplayName *string
	Handle      *string
}

// CredentialClaims are the claims the identity provider puts in its tokens.
type CredentialClaims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type IdentityService interface {
	ResolveUser(ctx context.Context, credential string) (*Identity, error)
}

type identityService struct {
	users     repository.UserRepository
	jwtSecret []byte
	issuer    string
}

func NewIdentityService(users repository.UserRepository, jwtSecret, issuer string) IdentityService {
	return &identityService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
	}
}

// ResolveUser verifies the credential and returns the local user it maps to,
// creating the user row on first sight.
func (s *identityService) ResolveUser(ctx context.Context, credential string) (*Identity, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrInvalidCredential)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims CredentialClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	user, err := s.users.UpsertByExternalID(ctx, claims.Subject, optional(claims.Name), optional(claims.Picture))
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", claims.Subject, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: resolved user id is not positive", ErrInvalidCredential)
	}

	return &Identity{
		UserID:      user.ID,
		ExternalID:  user.ExternalID,
		DisplayName: user.DisplayName,
		Handle:      user.Handle,
	}, nil
}

// IssueCredential signs a credential the way the identity provider does.
// Used by local tooling and tests.
func IssueCredential(secret string, claims CredentialClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// IsAuthError reports whether err means the caller is not authenticated.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredential)
}
