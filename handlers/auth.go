package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"fastmemo/auth"
	"fastmemo/models"
	"fastmemo/service"
)

// ResetPathPrefix is where reset tokens are redeemed; forgot-password
// emails link to it.
const ResetPathPrefix = "/api/v1/users/resetPassword/"

// AuthHandler serves signup, login and the password routes
type AuthHandler struct {
	sessions *service.AuthService
	issuer   *auth.Issuer
}

func NewAuthHandler(sessions *service.AuthService, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{sessions: sessions, issuer: issuer}
}

// sendSession sets the session cookie and writes the token envelope.
func (h *AuthHandler) sendSession(w http.ResponseWriter, code int, s service.Session) error {
	http.SetCookie(w, h.issuer.Cookie(s.Token))
	return respondJSON(w, code, Envelope{
		Status: "success",
		Token:  s.Token.Value,
		Data:   map[string]any{"user": s.User},
	})
}

// Signup handles POST /users/signup
func (h *AuthHandler) Signup(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	logRequest(ctx, "info", "Signup request")

	session, err := h.sessions.Signup(ctx, req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "User signed up", zap.String("user_id", session.User.ID))
	return h.sendSession(w, http.StatusCreated, session)
}

// Login handles POST /users/login
func (h *AuthHandler) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := h.sessions.Login(ctx, req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "User logged in", zap.String("user_id", session.User.ID))
	return h.sendSession(w, http.StatusOK, session)
}

// Logout handles GET /users/logout. The token itself stays valid until it
// expires; only the cookie is overwritten.
func (h *AuthHandler) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, h.issuer.LogoutCookie())
	logRequest(ctx, "info", "User logged out")
	return respondJSON(w, http.StatusOK, Envelope{Status: "success"})
}

// UpdateMyPassword handles PATCH /users/updateMyPassword
func (h *AuthHandler) UpdateMyPassword(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	user, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := h.sessions.UpdatePassword(ctx, user.ID, req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "Password updated")
	return h.sendSession(w, http.StatusOK, session)
}

// ForgotPassword handles POST /users/forgotPassword
func (h *AuthHandler) ForgotPassword(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req models.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if err := h.sessions.ForgotPassword(ctx, req.Email, resetURL(r)); err != nil {
		return err
	}

	return respondJSON(w, http.StatusOK, Envelope{Status: "success", Message: "Token sent to email!"})
}

func resetURL(r *http.Request) func(token string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return func(token string) string {
		return scheme + "://" + r.Host + ResetPathPrefix + token
	}
}

// ResetPassword handles PATCH /users/resetPassword/{resetToken}
func (h *AuthHandler) ResetPassword(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req models.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := h.sessions.ResetPassword(ctx, mux.Vars(r)["resetToken"], req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "Password reset", zap.String("user_id", session.User.ID))
	return h.sendSession(w, http.StatusOK, session)
}
