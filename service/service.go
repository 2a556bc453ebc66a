// Package service holds the application operations behind the HTTP
// handlers. Services keep no per-request state; everything a call needs
// arrives as arguments.
package service

import (
	"context"
	"time"

	"fastmemo/models"
)

// UserRepository is implemented by store.UserStore.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, digest string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	SetResetChallenge(ctx context.Context, id string, digest *string, expires *time.Time) error
	Delete(ctx context.Context, id string) error
}

// NoteRepository is implemented by store.NoteStore.
type NoteRepository interface {
	Create(ctx context.Context, n *models.Note) error
	Get(ctx context.Context, ownerID, id string) (*models.Note, error)
	List(ctx context.Context, f models.NoteFilter) ([]models.Note, error)
	Update(ctx context.Context, n *models.Note) error
	DeleteTrashed(ctx context.Context, ownerID, id string) error
	Labels(ctx context.Context, ownerID string) ([]string, error)
}
