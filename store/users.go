package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fastmemo/models"
)

const userColumns = `id, name, email, password, role, photo,
	password_reset_token, password_reset_expires, created_at, updated_at`

// UserStore owns the users table.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Photo == "" {
		u.Photo = models.DefaultPhoto
	}
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO users
		(id, name, email, password, role, photo, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, u.Password, u.Role, u.Photo, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, "id = ?", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "email = ?", email)
}

// GetByResetToken finds the user holding the given reset token digest. The
// caller decides whether the challenge has expired.
func (s *UserStore) GetByResetToken(ctx context.Context, digest string) (*models.User, error) {
	return s.getOne(ctx, "password_reset_token = ?", digest)
}

func (s *UserStore) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE "+where), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// Update writes every mutable column of u.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET
		name = ?, email = ?, password = ?, role = ?, photo = ?,
		password_reset_token = ?, password_reset_expires = ?, updated_at = ?
		WHERE id = ?`),
		u.Name, u.Email, u.Password, u.Role, u.Photo,
		u.PasswordResetToken, u.PasswordResetExpires, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return expectOne(result)
}

// SetResetChallenge stores (or with nil arguments clears) the reset token
// digest and its expiry.
func (s *UserStore) SetResetChallenge(ctx context.Context, id string, digest *string, expires *time.Time) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET
		password_reset_token = ?, password_reset_expires = ?, updated_at = ?
		WHERE id = ?`),
		digest, expires, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update reset challenge: %w", err)
	}
	return expectOne(result)
}

// Delete removes the user together with their notes.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ownedNotes := "SELECT id FROM notes WHERE user_id = ?"
		stmts := []string{
			"DELETE FROM note_images WHERE note_id IN (" + ownedNotes + ")",
			"DELETE FROM note_labels WHERE note_id IN (" + ownedNotes + ")",
			"DELETE FROM notes WHERE user_id = ?",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return fmt.Errorf("delete user notes: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM users WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return expectOne(result)
	})
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
