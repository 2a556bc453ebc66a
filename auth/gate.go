package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"fastmemo/apperror"
	"fastmemo/models"
	"fastmemo/store"
)

const (
	MsgNotLoggedIn   = "You are not logged in! Please log in to get access."
	MsgInvalidToken  = "Invalid token. Please log in again."
	MsgTokenExpired  = "Your token has expired! Please log in again."
	MsgPrincipalGone = "The user belonging to this token no longer exists."
	MsgForbidden     = "You do not have permission to perform this action"
)

// PrincipalLoader loads the user a verified token refers to.
type PrincipalLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Gate authenticates requests and enforces per-route role allow-sets.
type Gate struct {
	issuer *Issuer
	users  PrincipalLoader
}

func NewGate(issuer *Issuer, users PrincipalLoader) *Gate {
	return &Gate{issuer: issuer, users: users}
}

// Authenticate resolves the principal of r. Every failure is an
// unauthenticated apperror.
func (g *Gate) Authenticate(r *http.Request) (*models.User, error) {
	token, ok := Extract(r)
	if !ok {
		return nil, apperror.Unauthenticated(MsgNotLoggedIn)
	}

	id, err := g.issuer.Verify(token)
	if errors.Is(err, ErrTokenExpired) {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, MsgTokenExpired, err)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, MsgInvalidToken, err)
	}

	user, err := g.users.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, MsgPrincipalGone, err)
	}
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}

	return user, nil
}

// Authorize fails with Forbidden unless the principal's role is in allow.
// An empty allow-set admits every authenticated principal.
func Authorize(user *models.User, allow []models.Role) error {
	if len(allow) == 0 || slices.Contains(allow, user.Role) {
		return nil
	}
	return apperror.Forbidden(MsgForbidden)
}

// Check runs both gates and returns a context carrying the principal.
func (g *Gate) Check(r *http.Request, allow []models.Role) (context.Context, error) {
	user, err := g.Authenticate(r)
	if err != nil {
		return nil, err
	}
	if err := Authorize(user, allow); err != nil {
		return nil, err
	}
	return WithPrincipal(r.Context(), user), nil
}

type ctxKey string

const principalKey ctxKey = "fastmemo.principal"

// WithPrincipal stores the authenticated user in ctx.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}

// PrincipalFromContext returns the authenticated user, if any.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey).(*models.User)
	return user, ok && user != nil
}
