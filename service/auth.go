package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"fastmemo/apperror"
	"fastmemo/auth"
	"fastmemo/mailer"
	"fastmemo/models"
	"fastmemo/store"
)

const (
	MsgIncorrectCredentials = "Incorrect email or password"
	MsgResetTokenInvalid    = "Token is invalid or has expired"
	MsgEmailFailed          = "There was an error sending the email. Try again later!"
)

// Session is an authenticated user with a freshly issued token.
type Session struct {
	User  *models.User
	Token auth.Token
}

type AuthService struct {
	users    UserRepository
	hasher   *auth.Hasher
	issuer   *auth.Issuer
	mail     mailer.Sender
	resetTTL time.Duration
	now      func() time.Time
}

func NewAuthService(users UserRepository, hasher *auth.Hasher, issuer *auth.Issuer, mail mailer.Sender, resetTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		mail:     mail,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	c := *s
	c.now = now
	return &c
}

func (s *AuthService) session(u *models.User) (Session, error) {
	token, err := s.issuer.Issue(u.ID)
	if err != nil {
		return Session{}, apperror.Internal(err)
	}
	return Session{User: u, Token: token}, nil
}

// Signup creates a regular user and logs them in.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (Session, error) {
	req.Role = ""
	u, err := s.createUser(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.session(u)
}

func (s *AuthService) createUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := validateSignup(&req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     req.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, apperror.Normalize(err)
	}
	return u, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return Session{}, apperror.Validation("Please provide email and password!")
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, apperror.Unauthenticated(MsgIncorrectCredentials)
	}
	if err != nil {
		return Session{}, apperror.Internal(err)
	}

	if !s.hasher.Compare(u.Password, req.Password) {
		return Session{}, apperror.Unauthenticated(MsgIncorrectCredentials)
	}

	return s.session(u)
}

// ChangePassword replaces the password of user id after checking current.
// A wrong current password is reported through ok, not as an error.
func (s *AuthService) ChangePassword(ctx context.Context, id, current, newPassword string) (u *models.User, ok bool, err error) {
	u, err = s.users.GetByID(ctx, id)
	if err != nil {
		return nil, false, apperror.Normalize(err)
	}

	if !s.hasher.Compare(u.Password, current) {
		return nil, false, nil
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, false, apperror.Internal(err)
	}
	u.Password = hash
	if err := s.users.Update(ctx, u); err != nil {
		return nil, false, apperror.Normalize(err)
	}
	return u, true, nil
}

// UpdatePassword is PATCH /users/updateMyPassword: change and re-issue.
func (s *AuthService) UpdatePassword(ctx context.Context, id string, req models.UpdatePasswordRequest) (Session, error) {
	if err := validateNewPassword(req.Next(), req.PasswordConfirm); err != nil {
		return Session{}, err
	}

	u, ok, err := s.ChangePassword(ctx, id, req.Current(), req.Next())
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, apperror.Unauthenticated(MsgIncorrectCredentials)
	}
	return s.session(u)
}

// CreateResetChallenge stores a new reset token digest for the user and
// returns the plaintext token. The plaintext is never stored.
func (s *AuthService) CreateResetChallenge(ctx context.Context, u *models.User) (string, error) {
	challenge, err := auth.NewResetChallenge(s.now().UTC(), s.resetTTL)
	if err != nil {
		return "", apperror.Internal(err)
	}

	if err := s.users.SetResetChallenge(ctx, u.ID, &challenge.Digest, &challenge.Expires); err != nil {
		return "", apperror.Normalize(err)
	}
	return challenge.Plain, nil
}

// ForgotPassword emails a reset token. Unknown addresses get the same
// response as known ones. resetURL builds the link for a token.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		logger.Info("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return apperror.Internal(err)
	}

	token, err := s.CreateResetChallenge(ctx, u)
	if err != nil {
		return err
	}

	if err := s.mail.Send(ctx, mailer.PasswordReset(u.Email, token, resetURL(token))); err != nil {
		s.abandonResetChallenge(ctx, email, err)
		return apperror.Unavailable(MsgEmailFailed, err)
	}
	return nil
}

// abandonResetChallenge clears the reset fields of the user owning email
// after the token could not be delivered. The user is looked up again so
// the clear applies to the current record.
func (s *AuthService) abandonResetChallenge(ctx context.Context, email string, cause error) {
	logger.Error("Failed to send password reset email", zap.Error(cause))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		logger.Error("Failed to reload user after email failure", zap.Error(err))
		return
	}
	if err := s.users.SetResetChallenge(ctx, u.ID, nil, nil); err != nil {
		logger.Error("Failed to clear password reset token", zap.Error(err), zap.String("user_id", u.ID))
	}
}

// RedeemResetChallenge sets a new password for the holder of plain if the
// token is current. Unknown and expired tokens fail identically.
func (s *AuthService) RedeemResetChallenge(ctx context.Context, plain, newPassword string) (*models.User, error) {
	if plain == "" {
		return nil, apperror.Validation(MsgResetTokenInvalid)
	}

	u, err := s.users.GetByResetToken(ctx, auth.DigestResetToken(plain))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindValidation, MsgResetTokenInvalid, auth.ErrResetTokenInvalid)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if u.PasswordResetExpires == nil || !s.now().Before(*u.PasswordResetExpires) {
		return nil, apperror.Wrap(apperror.KindValidation, MsgResetTokenInvalid, auth.ErrResetTokenInvalid)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u.Password = hash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	if err := s.users.Update(ctx, u); err != nil {
		return nil, apperror.Normalize(err)
	}
	return u, nil
}

// ResetPassword is PATCH /users/resetPassword/{token}: redeem and log in.
func (s *AuthService) ResetPassword(ctx context.Context, plain string, req models.ResetPasswordRequest) (Session, error) {
	if err := validateNewPassword(req.Password, req.PasswordConfirm); err != nil {
		return Session{}, err
	}

	u, err := s.RedeemResetChallenge(ctx, plain, req.Password)
	if err != nil {
		return Session{}, err
	}
	return s.session(u)
}
