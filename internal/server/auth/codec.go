// Package auth holds the stateless credential primitives of the server: the
// HS256 token codec, bearer header parsing, the password hasher and the
// request identity carried in a context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass distinguishes access tokens from refresh tokens. Each class is
// signed with its own secret.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

// Claims is the JWT payload minted by Codec.
type Claims struct {
	jwt.RegisteredClaims
	Class TokenClass `json:"cls"`
}

// TokenClaims is the decoded, verified view of a token.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Class     TokenClass
	ID        string
}

// CodecConfig configures a Codec. Now defaults to time.Now.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// Codec mints and verifies signed tokens. It is safe for concurrent use.
type Codec struct {
	secrets map[TokenClass][]byte
	ttls    map[TokenClass]time.Duration
	now     func() time.Time
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access token lifetime must be shorter than refresh token lifetime")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		secrets: map[TokenClass][]byte{
			AccessToken:  []byte(cfg.AccessSecret),
			RefreshToken: []byte(cfg.RefreshSecret),
		},
		ttls: map[TokenClass]time.Duration{
			AccessToken:  cfg.AccessTTL,
			RefreshToken: cfg.RefreshTTL,
		},
		now: now,
	}, nil
}

// TTL returns the lifetime of tokens of the given class.
func (c *Codec) TTL(class TokenClass) time.Duration {
	return c.ttls[class]
}

// Mint signs a new token of the given class for subject.
func (c *Codec) Mint(subject string, class TokenClass) (string, error) {
	secret, ok := c.secrets[class]
	if !ok {
		return "", fmt.Errorf("unknown token class %q", class)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttls[class])),
			ID:        uuid.NewString(),
		},
		Class: class,
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks, in order, signature and format, expiry, token class and
// subject. Errors are common.ErrInvalidToken, common.ErrTokenExpired or
// common.ErrSubjectMismatch.
func (c *Codec) Verify(tokenString string, class TokenClass, expectedSubject string) (*TokenClaims, error) {
	claims, err := c.parse(tokenString, class, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if claims.Class != class {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject != expectedSubject {
		return nil, common.ErrSubjectMismatch
	}

	return toTokenClaims(claims), nil
}

// ExtractSubject returns the subject of a correctly signed token without
// looking at its expiry.
func (c *Codec) ExtractSubject(tokenString string, class TokenClass) (string, error) {
	claims, err := c.parse(tokenString, class, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (c *Codec) parse(tokenString string, class TokenClass, opts ...jwt.ParserOption) (*Claims, error) {
	secret, ok := c.secrets[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token class %q", common.ErrInvalidToken, class)
	}

	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
}

func toTokenClaims(c *Claims) *TokenClaims {
	tc := &TokenClaims{Subject: c.Subject, Class: c.Class, ID: c.ID}
	if c.IssuedAt != nil {
		tc.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		tc.ExpiresAt = c.ExpiresAt.Time
	}
	return tc
}
