package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"fastmemo/apperror"
	"fastmemo/imagestore"
	"fastmemo/models"
	"fastmemo/service"
)

// UserHandler handles the profile routes and the admin user routes
type UserHandler struct {
	users   *service.UserService
	uploads uploader
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, images imagestore.Store) *UserHandler {
	return &UserHandler{
		users:   users,
		uploads: uploader{store: images, now: time.Now},
	}
}

func userData(u *models.User) map[string]any {
	return map[string]any{"user": u}
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	user, err := h.users.Get(ctx, me.ID)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(userData(user)))
}

// UpdateMe handles PATCH /users/me. The body is JSON or multipart with an
// optional "photo" file.
func (h *UserHandler) UpdateMe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	var uploaded string
	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			return err
		}
		req = formUpdate(r)
		if req.Password == nil && req.PasswordConfirm == nil {
			_, fh, err := r.FormFile("photo")
			switch {
			case err == nil:
				name, err := h.uploads.save(ctx, imagestore.Users, "User", me.ID, 0, fh)
				if err != nil {
					return err
				}
				req.Photo = &name
				uploaded = name
			case !errors.Is(err, http.ErrMissingFile):
				return apperror.Wrap(apperror.KindValidation, "Invalid input", err)
			}
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.users.Update(ctx, me.ID, req, false)
	if err != nil {
		if uploaded != "" {
			h.uploads.discard(ctx, imagestore.Users, uploaded)
		}
		return err
	}

	logRequest(ctx, "info", "Profile updated")
	return respondJSON(w, http.StatusOK, success(userData(user)))
}

// formUpdate reads the text fields of a multipart profile update. Password
// fields are carried through so the update is rejected.
func formUpdate(r *http.Request) models.UpdateUserRequest {
	var req models.UpdateUserRequest
	field := func(key string) *string {
		if vals, ok := r.MultipartForm.Value[key]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	req.Name = field("name")
	req.Email = field("email")
	req.Password = field("password")
	req.PasswordConfirm = field("passwordConfirm")
	return req
}

// DeleteMe handles DELETE /users/me
func (h *UserHandler) DeleteMe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	if err := h.users.Delete(ctx, me.ID); err != nil {
		return err
	}

	logRequest(ctx, "info", "Account deleted", zap.String("user_id", me.ID))
	return noContent(w)
}

// GetUsers handles GET /users
func (h *UserHandler) GetUsers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	logRequest(ctx, "info", "Listing users")

	users, err := h.users.List(ctx)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "Users retrieved successfully", zap.Int("count", len(users)))
	return respondJSON(w, http.StatusOK, results(len(users), map[string]any{"users": users}))
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	user, err := h.users.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(userData(user)))
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.users.Create(ctx, req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "User created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return respondJSON(w, http.StatusCreated, success(userData(user)))
}

// UpdateUser handles PATCH /users/{id}
func (h *UserHandler) UpdateUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req models.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.users.Update(ctx, mux.Vars(r)["id"], req, true)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "User updated", zap.String("user_id", user.ID))
	return respondJSON(w, http.StatusOK, success(userData(user)))
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandler) DeleteUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if err := h.users.Delete(ctx, id); err != nil {
		return err
	}

	logRequest(ctx, "info", "User deleted", zap.String("user_id", id))
	return noContent(w)
}
