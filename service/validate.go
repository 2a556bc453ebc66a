package service

import (
	"regexp"
	"strings"

	"fastmemo/apperror"
	"fastmemo/models"
)

const (
	minPasswordLength = 8
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	maxPasswordBytes = 72
)

const MsgPasswordTooLong = "Password must be at most 72 bytes long"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// normalizeEmail trims and lower-cases email and checks its format.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) == 0 || len(email) > 255 || !emailRegex.MatchString(email) {
		return "", apperror.Validation("Please provide a valid email")
	}
	return email, nil
}

func validateNewPassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return apperror.Validation("Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return apperror.Validation(MsgPasswordTooLong)
	}
	if password != confirm {
		return apperror.Validation("Passwords are not the same!")
	}
	return nil
}

// validateSignup normalizes req in place.
func validateSignup(req *models.SignupRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperror.Validation("Please tell us your name!")
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	req.Email = email

	if req.Role != "" && !req.Role.Valid() {
		return apperror.Validation("Invalid input")
	}

	return validateNewPassword(req.Password, req.PasswordConfirm)
}

// validateUserUpdate normalizes req in place. Password fields are always
// rejected, those go through the dedicated password routes.
func validateUserUpdate(req *models.UpdateUserRequest) error {
	if req.Password != nil || req.PasswordConfirm != nil {
		return apperror.Validation("This route is not for password updates. Please use /updateMyPassword.")
	}
	if req.Empty() {
		return apperror.Validation("No fields to update")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return apperror.Validation("Please tell us your name!")
		}
		req.Name = &name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return err
		}
		req.Email = &email
	}
	if req.Photo != nil && strings.TrimSpace(*req.Photo) == "" {
		return apperror.Validation("Invalid input")
	}
	if req.Role != nil && !req.Role.Valid() {
		return apperror.Validation("Invalid input")
	}
	return nil
}
