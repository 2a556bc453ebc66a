package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

const DefaultPhoto = "default.jpeg"

// User represents a user in the system
// Password and reset fields are never serialized
type User struct {
	ID                   string     `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Email                string     `json:"email" db:"email"`
	Password             string     `json:"-" db:"password"` // bcrypt hash
	Role                 Role       `json:"role" db:"role"`
	Photo                string     `json:"photo" db:"photo"`
	PasswordResetToken   *string    `json:"-" db:"password_reset_token"` // sha256 hex
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`
}

// SignupRequest is the body of POST /users/signup and admin POST /users
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            Role   `json:"role,omitempty"` // honoured for admin create only
}

// LoginRequest for POST /users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdatePasswordRequest for PATCH /users/updateMyPassword. Clients send
// either currentPassword/newPassword or passwordCurrent/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
	PasswordCurrent string `json:"passwordCurrent,omitempty"`
	Password        string `json:"password,omitempty"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Current is the password being replaced
func (r UpdatePasswordRequest) Current() string {
	if r.CurrentPassword != "" {
		return r.CurrentPassword
	}
	return r.PasswordCurrent
}

// Next is the requested new password
func (r UpdatePasswordRequest) Next() string {
	if r.NewPassword != "" {
		return r.NewPassword
	}
	return r.Password
}

// UpdateUserRequest carries the optional fields of PATCH /users/me and
// PATCH /users/{id}. Password fields are present only so they can be
// rejected.
type UpdateUserRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Photo           *string `json:"photo,omitempty"`
	Role            *Role   `json:"role,omitempty"`
	Password        *string `json:"password,omitempty"`
	PasswordConfirm *string `json:"passwordConfirm,omitempty"`
}

// Empty reports whether the request changes nothing
func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Photo == nil && r.Role == nil
}
