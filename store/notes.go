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

// NoteStore owns notes and their image and label collections. Every read
// and write is scoped to an owner.
type NoteStore struct {
	db *sqlx.DB
}

func NewNoteStore(db *sqlx.DB) *NoteStore {
	return &NoteStore{db: db}
}

type noteRow struct {
	ID          string        `db:"id"`
	UserID      string        `db:"user_id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	Status      models.Status `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
	OwnerName   string        `db:"owner_name"`
	OwnerEmail  string        `db:"owner_email"`
	OwnerPhoto  string        `db:"owner_photo"`
}

func (r noteRow) note() models.Note {
	return models.Note{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		UserID:      r.UserID,
		User: &models.Owner{
			ID:    r.UserID,
			Name:  r.OwnerName,
			Email: r.OwnerEmail,
			Photo: r.OwnerPhoto,
		},
		Images:    []string{},
		Labels:    []string{},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const noteSelect = `SELECT n.id, n.user_id, n.title, n.description, n.status,
	n.created_at, n.updated_at,
	u.name AS owner_name, u.email AS owner_email, u.photo AS owner_photo
	FROM notes n JOIN users u ON u.id = n.user_id`

// Create inserts n with its images and labels. n.UserID must be set.
func (s *NoteStore) Create(ctx context.Context, n *models.Note) error {
	now := time.Now().UTC()
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.Status == "" {
		n.Status = models.StatusNormal
	}
	n.CreatedAt, n.UpdatedAt = now, now

	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO notes
			(id, user_id, title, description, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			n.ID, n.UserID, n.Title, n.Description, n.Status, n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert note: %w", translate(err))
		}
		return writeCollections(ctx, tx, n)
	})
}

// Get returns the note only if ownerID owns it.
func (s *NoteStore) Get(ctx context.Context, ownerID, id string) (*models.Note, error) {
	var row noteRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(noteSelect+" WHERE n.id = ? AND n.user_id = ?"), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select note: %w", err)
	}

	notes := []models.Note{row.note()}
	if err := s.loadCollections(ctx, notes); err != nil {
		return nil, err
	}
	return &notes[0], nil
}

// List returns the notes matching f, newest first.
func (s *NoteStore) List(ctx context.Context, f models.NoteFilter) ([]models.Note, error) {
	query := noteSelect + " WHERE n.user_id = ? AND n.status = ?"
	args := []any{f.OwnerID, f.Status}
	if f.Label != "" {
		query += " AND EXISTS (SELECT 1 FROM note_labels l WHERE l.note_id = n.id AND l.label = ?)"
		args = append(args, f.Label)
	}
	query += " ORDER BY n.created_at DESC"

	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}

	notes := make([]models.Note, len(rows))
	for i, r := range rows {
		notes[i] = r.note()
	}
	if err := s.loadCollections(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Update writes title, description, status and both collections of n.
// The write is scoped to n.UserID; a note owned by someone else is
// reported as ErrNotFound.
func (s *NoteStore) Update(ctx context.Context, n *models.Note) error {
	n.UpdatedAt = time.Now().UTC()

	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE notes SET
			title = ?, description = ?, status = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`),
			n.Title, n.Description, n.Status, n.UpdatedAt, n.ID, n.UserID)
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if err := expectOne(result); err != nil {
			return err
		}

		for _, stmt := range []string{
			"DELETE FROM note_images WHERE note_id = ?",
			"DELETE FROM note_labels WHERE note_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), n.ID); err != nil {
				return fmt.Errorf("clear note collections: %w", err)
			}
		}
		return writeCollections(ctx, tx, n)
	})
}

// DeleteTrashed permanently removes a trashed note. Notes in any other
// status, or owned by someone else, are reported as ErrNotFound.
func (s *NoteStore) DeleteTrashed(ctx context.Context, ownerID, id string) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(
			"DELETE FROM notes WHERE id = ? AND user_id = ? AND status = ?"),
			id, ownerID, models.StatusTrashed)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if err := expectOne(result); err != nil {
			return err
		}

		for _, stmt := range []string{
			"DELETE FROM note_images WHERE note_id = ?",
			"DELETE FROM note_labels WHERE note_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return fmt.Errorf("delete note collections: %w", err)
			}
		}
		return nil
	})
}

// Labels returns the distinct labels used across the owner's notes.
func (s *NoteStore) Labels(ctx context.Context, ownerID string) ([]string, error) {
	labels := []string{}
	err := s.db.SelectContext(ctx, &labels, s.db.Rebind(`SELECT DISTINCT l.label
		FROM note_labels l JOIN notes n ON n.id = l.note_id
		WHERE n.user_id = ?
		ORDER BY l.label`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("select labels: %w", err)
	}
	return labels, nil
}

func writeCollections(ctx context.Context, tx *sqlx.Tx, n *models.Note) error {
	for i, img := range n.Images {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			"INSERT INTO note_images (note_id, filename, position) VALUES (?, ?, ?)"),
			n.ID, img, i)
		if err != nil {
			return fmt.Errorf("insert note image: %w", translate(err))
		}
	}
	for i, label := range n.Labels {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			"INSERT INTO note_labels (note_id, label, position) VALUES (?, ?, ?)"),
			n.ID, label, i)
		if err != nil {
			return fmt.Errorf("insert note label: %w", translate(err))
		}
	}
	return nil
}

type collectionRow struct {
	NoteID string `db:"note_id"`
	Value  string `db:"value"`
}

// loadCollections fills Images and Labels of notes in two queries.
func (s *NoteStore) loadCollections(ctx context.Context, notes []models.Note) error {
	if len(notes) == 0 {
		return nil
	}

	ids := make([]string, len(notes))
	byID := make(map[string]*models.Note, len(notes))
	for i := range notes {
		ids[i] = notes[i].ID
		byID[notes[i].ID] = &notes[i]
	}

	images, err := s.selectCollection(ctx,
		"SELECT note_id, filename AS value FROM note_images WHERE note_id IN (?) ORDER BY note_id, position", ids)
	if err != nil {
		return fmt.Errorf("select note images: %w", err)
	}
	for _, r := range images {
		n := byID[r.NoteID]
		n.Images = append(n.Images, r.Value)
	}

	labels, err := s.selectCollection(ctx,
		"SELECT note_id, label AS value FROM note_labels WHERE note_id IN (?) ORDER BY note_id, position", ids)
	if err != nil {
		return fmt.Errorf("select note labels: %w", err)
	}
	for _, r := range labels {
		n := byID[r.NoteID]
		n.Labels = append(n.Labels, r.Value)
	}
	return nil
}

func (s *NoteStore) selectCollection(ctx context.Context, query string, ids []string) ([]collectionRow, error) {
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	var rows []collectionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}
