package auth

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims are carried by API tokens.
type Claims struct {
	gojwt.RegisteredClaims
	// Scope limits what the bearer may do: "read" or "write".
	Scope string `json:"scope,omitempty"`
}

// Scopes.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// CanWrite reports whether the claims allow starting transcriptions.
func (c *Claims) CanWrite() bool { return c.Scope == "" || c.Scope == ScopeWrite }

// Service issues and verifies HS256 tokens.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a Service. cfg.Secret must be set.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled() {
		return nil, errors.New("auth: jwt_secret is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, now: time.Now}, nil
}

// Issue signs a token for subject with the given scope.
func (s *Service) Issue(subject, scope string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		Scope: scope,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, expiry and issuer and returns the claims.
func (s *Service) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims,
		func(*gojwt.Token) (interface{}, error) { return []byte(s.cfg.Secret), nil },
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(s.cfg.Issuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, gojwt.ErrTokenExpired)
}
