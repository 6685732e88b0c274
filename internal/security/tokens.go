package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is the parent of every token validation failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the token's exp is in the past.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
	// ErrTokenMalformed is returned for unparsable tokens and for tokens whose claims
	// (issuer, audience, type, subject) do not match what the provider issues.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	// ErrTokenBadSignature is returned when the signature or signing method does not verify.
	ErrTokenBadSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
)

// TokenType distinguishes access tokens from refresh tokens inside the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Payload is the identity embedded in both access and refresh tokens.
type Payload struct {
	UserID string
	Email  string
	OrgID  string
}

// Claims holds JWT claims for access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	OrgID string    `json:"org_id,omitempty"`
	Type  TokenType `json:"typ"`
}

// TokenProvider issues and validates JWT access and refresh tokens.
type TokenProvider struct {
	key        SigningKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with key.
// issuer and audience are set on claims and validated on every parse.
func NewTokenProvider(key SigningKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		key:        key,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AccessTTL returns the lifetime of issued access tokens.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the lifetime of issued refresh tokens.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access JWT for payload. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(payload Payload) (string, time.Time, error) {
	return p.issue(payload, TokenTypeAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh JWT for payload. Every call yields a distinct
// token (random jti), so a rotated refresh token is unrelated to its predecessor.
func (p *TokenProvider) IssueRefresh(payload Payload) (string, time.Time, error) {
	return p.issue(payload, TokenTypeRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(payload Payload, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if payload.UserID == "" {
		return "", time.Time{}, errors.New("token: payload user id is required")
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := p.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   payload.UserID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: payload.Email,
		OrgID: payload.OrgID,
		Type:  typ,
	}
	token, err := jwt.NewWithClaims(p.key.method, claims).SignedString(p.key.sign)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccess parses and validates an access token (signature, exp, iss, aud, typ).
func (p *TokenProvider) ValidateAccess(tokenString string) (Payload, error) {
	return p.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss, aud, typ).
func (p *TokenProvider) ValidateRefresh(tokenString string) (Payload, error) {
	return p.validate(tokenString, TokenTypeRefresh)
}

func (p *TokenProvider) validate(tokenString string, want TokenType) (Payload, error) {
	if tokenString == "" {
		return Payload{}, ErrTokenMalformed
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.key.verify, nil
	},
		jwt.WithValidMethods([]string{p.key.method.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Payload{}, classify(err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Payload{}, ErrTokenMalformed
	}
	if claims.Type != want || claims.Subject == "" {
		return Payload{}, ErrTokenMalformed
	}
	return Payload{UserID: claims.Subject, Email: claims.Email, OrgID: claims.OrgID}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenBadSignature
	default:
		return ErrTokenMalformed
	}
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
