package models

import (
	"encoding/json"
	"time"
)

// Status is the single lifecycle state of a note. A note is in exactly one
// view at a time.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusArchived Status = "archived"
	StatusTrashed  Status = "trashed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusArchived, StatusTrashed:
		return true
	}
	return false
}

const DefaultDescription = "Empty Note"

// Owner is the public summary of a note's owner
type Owner struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Photo string `json:"photo" db:"photo"`
}

type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Labels      []string  `json:"labels"`
	Status      Status    `json:"status"`
	UserID      string    `json:"-"`
	User        *Owner    `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarshalJSON adds the archive/trash booleans older clients still read.
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	images, labels := n.Images, n.Labels
	if images == nil {
		images = []string{}
	}
	if labels == nil {
		labels = []string{}
	}
	p := plain(n)
	p.Images, p.Labels = images, labels
	return json.Marshal(struct {
		plain
		Archive bool `json:"archive"`
		Trash   bool `json:"trash"`
	}{
		plain:   p,
		Archive: n.Status == StatusArchived,
		Trash:   n.Status == StatusTrashed,
	})
}

// CreateNoteRequest is the body of POST /notes
type CreateNoteRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Archive     bool     `json:"archive,omitempty"`
	Trash       bool     `json:"trash,omitempty"`

	// Accepted for compatibility and not stored.
	User          string          `json:"user,omitempty"`
	Reminders     json.RawMessage `json:"reminders,omitempty"`
	Collaborators []string        `json:"collaborators,omitempty"`
}

// UpdateNoteRequest is the body of PATCH /notes/{id}. Archive and Trash are
// translated into lifecycle transitions.
type UpdateNoteRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
	Archive     *bool     `json:"archive,omitempty"`
	Trash       *bool     `json:"trash,omitempty"`

	// Accepted for compatibility and not stored. Ownership never changes.
	User          string          `json:"user,omitempty"`
	Reminders     json.RawMessage `json:"reminders,omitempty"`
	Collaborators []string        `json:"collaborators,omitempty"`
}

// HasTransition reports whether the update changes the note's status
func (r UpdateNoteRequest) HasTransition() bool {
	return r.Archive != nil || r.Trash != nil
}

// ImagesRequest is the JSON body of POST/DELETE /notes/{id}/images. The
// detach body may name its list "image".
type ImagesRequest struct {
	Images []string `json:"images,omitempty"`
	Image  []string `json:"image,omitempty"`
}

// Names returns every image named by the request
func (r ImagesRequest) Names() []string {
	return append(append([]string{}, r.Images...), r.Image...)
}

// LabelsRequest is the body of POST/DELETE /notes/{id}/labels
type LabelsRequest struct {
	Labels []string `json:"labels"`
}

// NoteFilter is an owner-scoped note query. OwnerID and Status are always
// set; Label is optional.
type NoteFilter struct {
	OwnerID string
	Status  Status
	Label   string
}
