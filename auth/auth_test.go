package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fastmemo/apperror"
	"fastmemo/models"
	"fastmemo/store"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 7, false)

	for _, id := range []string{"u1", store.NewID(), "x"} {
		tok, err := issuer.Issue(id)
		require.NoError(t, err)

		got, err := issuer.Verify(tok.Value)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour, 7, false).WithClock(func() time.Time { return now })

	tok, err := issuer.Issue("u1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), tok.CookieExpiresAt)

	before := issuer.WithClock(func() time.Time { return now.Add(59 * time.Minute) })
	_, err = before.Verify(tok.Value)
	require.NoError(t, err)

	after := issuer.WithClock(func() time.Time { return now.Add(61 * time.Minute) })
	_, err = after.Verify(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsForgedTokens(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 1, false)

	other, err := NewIssuer("other-secret", time.Hour, 1, false).Issue("u1")
	require.NoError(t, err)
	_, err = issuer.Verify(other.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})
	s, err = noExp.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtract(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Extract(r)
	assert.False(t, ok)

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	tok, ok := Extract(r)
	require.True(t, ok)
	assert.Equal(t, "from-cookie", tok)

	r.Header.Set("Authorization", "Bearer from-header")
	tok, ok = Extract(r)
	require.True(t, ok)
	assert.Equal(t, "from-header", tok)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	_, ok = Extract(r)
	assert.False(t, ok)
}

func TestCookies(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 3, true)
	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	c := issuer.Cookie(tok)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, tok.Value, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, tok.CookieExpiresAt, c.Expires)

	out := issuer.LogoutCookie()
	assert.Equal(t, "loggedout", out.Value)
	assert.True(t, out.Expires.Before(time.Now().Add(time.Minute)))
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("abcdefgh")
	require.NoError(t, err)
	assert.NotEqual(t, "abcdefgh", hash)
	assert.True(t, h.Compare(hash, "abcdefgh"))
	assert.False(t, h.Compare(hash, "abcdefgi"))
	assert.False(t, h.Compare("not-a-hash", "abcdefgh"))

	other, err := h.Hash("abcdefgh")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ per record")
}

func TestResetChallenge(t *testing.T) {
	now := time.Now()
	c, err := NewResetChallenge(now, 10*time.Minute)
	require.NoError(t, err)

	assert.Len(t, c.Plain, 2*resetTokenBytes)
	assert.Equal(t, DigestResetToken(c.Plain), c.Digest)
	assert.NotEqual(t, c.Plain, c.Digest)
	assert.Equal(t, now.Add(10*time.Minute), c.Expires)

	c2, err := NewResetChallenge(now, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, c.Plain, c2.Plain)
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func TestGate(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 1, false)
	admin := &models.User{ID: "admin", Role: models.RoleAdmin}
	user := &models.User{ID: "user", Role: models.RoleUser}
	gate := NewGate(issuer, fakeUsers{"admin": admin, "user": user})

	request := func(id string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if id != "" {
			tok, err := issuer.Issue(id)
			require.NoError(t, err)
			r.Header.Set("Authorization", "Bearer "+tok.Value)
		}
		return r
	}

	kindOf := func(err error) apperror.Kind {
		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr), "got %v", err)
		return appErr.Kind
	}

	_, err := gate.Check(request(""), nil)
	assert.Equal(t, apperror.KindUnauthenticated, kindOf(err))

	_, err = gate.Check(request("deleted"), nil)
	assert.Equal(t, apperror.KindUnauthenticated, kindOf(err))
	assert.Contains(t, err.Error(), MsgPrincipalGone)

	_, err = gate.Check(request("user"), []models.Role{models.RoleAdmin})
	assert.Equal(t, apperror.KindForbidden, kindOf(err))

	ctx, err := gate.Check(request("admin"), []models.Role{models.RoleAdmin})
	require.NoError(t, err)
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", p.ID)

	ctx, err = gate.Check(request("user"), nil)
	require.NoError(t, err)
	p, ok = PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user", p.ID)

	_, ok = PrincipalFromContext(context.Background())
	assert.False(t, ok)
}
