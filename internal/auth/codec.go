package auth

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

type CodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Now           func() time.Time
}

// Codec signs and verifies access and refresh tokens. The two kinds use
// independent secrets, so one never verifies as the other.
type Codec struct {
	access  keyring
	refresh keyring
	issuer  string
	now     func() time.Time
}

type keyring struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Codec{
		access:  keyring{secret: cfg.AccessSecret, ttl: cfg.AccessTTL},
		refresh: keyring{secret: cfg.RefreshSecret, ttl: cfg.RefreshTTL},
		issuer:  cfg.Issuer,
		now:     cfg.Now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.access.ttl }
func (c *Codec) RefreshTTL() time.Duration { return c.refresh.ttl }

func (c *Codec) SignAccess(id session.Identity) (string, error) {
	return c.sign(id, c.access)
}

func (c *Codec) SignRefresh(id session.Identity) (string, error) {
	return c.sign(id, c.refresh)
}

func (c *Codec) VerifyAccess(token string) (session.Identity, error) {
	return c.verify(token, c.access)
}

func (c *Codec) VerifyRefresh(token string) (session.Identity, error) {
	return c.verify(token, c.refresh)
}

func (c *Codec) sign(id session.Identity, k keyring) (string, error) {
	if !id.Valid() {
		return "", fmt.Errorf("sign token for subject %d role %q: %w", id.ID, id.Role, session.ErrInvalidIdentity)
	}
	now := c.now()
	claims := claimsFor(id)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *Codec) verify(token string, k keyring) (session.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return k.secret, nil
	})
	if err != nil || !parsed.Valid {
		return session.Identity{}, session.ErrInvalidToken
	}
	if !claims.Identity().Valid() {
		return session.Identity{}, session.ErrInvalidToken
	}
	return claims.Identity(), nil
}
