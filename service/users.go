package service

import (
	"context"
	"errors"

	"fastmemo/apperror"
	"fastmemo/models"
	"fastmemo/store"
)

const MsgUserNotFound = "No user found with that ID"

type UserService struct {
	users UserRepository
	auth  *AuthService
}

func NewUserService(users UserRepository, auth *AuthService) *UserService {
	return &UserService{users: users, auth: auth}
}

func userError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.Wrap(apperror.KindNotFound, MsgUserNotFound, err)
	}
	return apperror.Normalize(err)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	id, err := store.ParseID("id", id)
	if err != nil {
		return nil, apperror.Normalize(err)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError(err)
	}
	return u, nil
}

// Create is the admin variant of signup; the role may be chosen and no
// session is issued.
func (s *UserService) Create(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	return s.auth.createUser(ctx, req)
}

// Update applies the optional fields of req to user id. allowRole is false
// for self-service updates.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest, allowRole bool) (*models.User, error) {
	if !allowRole {
		req.Role = nil
	}
	if err := validateUserUpdate(&req); err != nil {
		return nil, err
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Photo != nil {
		u.Photo = *req.Photo
	}
	if req.Role != nil {
		u.Role = *req.Role
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, userError(err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	id, err := store.ParseID("id", id)
	if err != nil {
		return apperror.Normalize(err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return userError(err)
	}
	return nil
}
