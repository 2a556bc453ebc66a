package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie that mirrors the bearer token for browsers.
const CookieName = "jwt"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the principal id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is a freshly issued session.
type Token struct {
	Value           string
	ExpiresAt       time.Time
	CookieExpiresAt time.Time
}

// Issuer signs and verifies session tokens. It is safe for concurrent use.
type Issuer struct {
	secret        []byte
	ttl           time.Duration
	cookieTTL     time.Duration
	secureCookies bool
	now           func() time.Time
}

// NewIssuer returns an issuer signing with HS256. cookieDays is the
// separately configured lifetime of the browser cookie.
func NewIssuer(secret string, ttl time.Duration, cookieDays int, secureCookies bool) *Issuer {
	return &Issuer{
		secret:        []byte(secret),
		ttl:           ttl,
		cookieTTL:     time.Duration(cookieDays) * 24 * time.Hour,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

func (i *Issuer) Issue(principalID string) (Token, error) {
	now := i.now()
	exp := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		Value:           signed,
		ExpiresAt:       exp,
		CookieExpiresAt: now.Add(i.cookieTTL),
	}, nil
}

// Verify checks signature, algorithm and expiry and returns the principal
// id. Failures are ErrTokenExpired or ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// Cookie builds the session cookie for t.
func (i *Issuer) Cookie(t Token) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    t.Value,
		Path:     "/",
		Expires:  t.CookieExpiresAt,
		HttpOnly: true,
		Secure:   i.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// LogoutCookie overwrites the session cookie with a short-lived placeholder.
func (i *Issuer) LogoutCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  i.now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   i.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// Extract returns the bearer token from the Authorization header, falling
// back to the session cookie. ok is false when neither is present.
func Extract(r *http.Request) (token string, ok bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, found := strings.CutPrefix(h, "Bearer "); found && t != "" {
			return t, true
		}
	}

	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	return "", false
}
