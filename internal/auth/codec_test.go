package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestCodec(t *testing.T, clk *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{
		AccessSecret:  []byte("access-secret-32-bytes-xxxxxxxxxx"),
		RefreshSecret: []byte("refresh-secret-32-bytes-xxxxxxxxx"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "storefront",
		Now:           clk.Now,
	})
	require.NoError(t, err)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)
	id := session.Identity{ID: 7, Role: session.RoleAdmin, IsVerified: true}

	access, err := c.SignAccess(id)
	require.NoError(t, err)
	got, err := c.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, id, got)

	refresh, err := c.SignRefresh(id)
	require.NoError(t, err)
	got, err = c.VerifyRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestCodec_SameIdentitySameSecondDiffers(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)
	id := session.Identity{ID: 1, Role: session.RoleUser}

	a, err := c.SignRefresh(id)
	require.NoError(t, err)
	b, err := c.SignRefresh(id)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCodec_Expiry(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start}
	c := newTestCodec(t, clk)
	id := session.Identity{ID: 1, Role: session.RoleUser}

	access, err := c.SignAccess(id)
	require.NoError(t, err)
	refresh, err := c.SignRefresh(id)
	require.NoError(t, err)

	clk.t = start.Add(time.Hour - time.Second)
	_, err = c.VerifyAccess(access)
	require.NoError(t, err)

	clk.t = start.Add(time.Hour + time.Second)
	_, err = c.VerifyAccess(access)
	require.ErrorIs(t, err, session.ErrInvalidToken)

	_, err = c.VerifyRefresh(refresh)
	require.NoError(t, err)

	clk.t = start.Add(24*time.Hour + time.Second)
	_, err = c.VerifyRefresh(refresh)
	require.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestCodec_KindsAreNotInterchangeable(t *testing.T) {
	clk := &fakeClock{t: time.Now().UTC()}
	c := newTestCodec(t, clk)
	id := session.Identity{ID: 3, Role: session.RoleUser}

	access, err := c.SignAccess(id)
	require.NoError(t, err)
	refresh, err := c.SignRefresh(id)
	require.NoError(t, err)

	_, err = c.VerifyRefresh(access)
	require.ErrorIs(t, err, session.ErrInvalidToken)
	_, err = c.VerifyAccess(refresh)
	require.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestCodec_Malformed(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now().UTC()})

	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := c.VerifyAccess(tok)
		require.ErrorIs(t, err, session.ErrInvalidToken, tok)
	}
}

func TestCodec_TamperedPayload(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now().UTC()})
	access, err := c.SignAccess(session.Identity{ID: 5, Role: session.RoleUser})
	require.NoError(t, err)

	parts := strings.Split(access, ".")
	require.Len(t, parts, 3)
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"role":"USER"`, `"role":"ADMIN"`, 1)
	require.NotEqual(t, string(payload), forged)
	parts[1] = (&jwt.Token{}).EncodeSegment([]byte(forged))

	_, err = c.VerifyAccess(strings.Join(parts, "."))
	require.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestCodec_AlgNoneRejected(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now().UTC()})
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		Role:   session.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "storefront",
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.VerifyAccess(tok)
	require.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestCodec_UnknownRoleRejected(t *testing.T) {
	now := time.Now().UTC()
	c := newTestCodec(t, &fakeClock{t: now})
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		Role:   "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Issuer:    "storefront",
		},
	}).SignedString(c.access.secret)
	require.NoError(t, err)

	_, err = c.VerifyAccess(tok)
	require.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestNewCodec_RejectsBadConfig(t *testing.T) {
	_, err := NewCodec(CodecConfig{AccessSecret: []byte("a"), RefreshSecret: []byte("a"), AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.Error(t, err)

	_, err = NewCodec(CodecConfig{AccessSecret: []byte("a"), AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.Error(t, err)

	_, err = NewCodec(CodecConfig{AccessSecret: []byte("a"), RefreshSecret: []byte("b"), RefreshTTL: time.Hour})
	require.Error(t, err)
}

func TestCodec_RefusesToSignUnverifiableIdentity(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now().UTC()})

	for _, id := range []session.Identity{
		{ID: 0, Role: session.RoleUser},
		{ID: -3, Role: session.RoleAdmin},
		{ID: 4, Role: "GUEST"},
	} {
		_, err := c.SignAccess(id)
		require.ErrorIs(t, err, session.ErrInvalidIdentity, id)
		_, err = c.SignRefresh(id)
		require.ErrorIs(t, err, session.ErrInvalidIdentity, id)
	}
}
