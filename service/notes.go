package service

import (
	"context"
	"errors"
	"strings"

	"fastmemo/apperror"
	"fastmemo/models"
	"fastmemo/notes"
	"fastmemo/store"
)

const (
	MsgNoteNotFound     = "No note found with that ID"
	MsgNoTrashedNote    = "No trashed note found with that ID"
	MsgRestoreFirst     = "Note is in the trash, restore it first"
	MsgConflictingFlags = "A note cannot be archived and trashed at once"
)

// NoteService applies owner-scoped note operations. ownerID is always the
// authenticated principal; nothing in a request body can change it.
type NoteService struct {
	notes NoteRepository
}

func NewNoteService(repo NoteRepository) *NoteService {
	return &NoteService{notes: repo}
}

func noteError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.Wrap(apperror.KindNotFound, MsgNoteNotFound, err)
	}
	return apperror.Normalize(err)
}

func (s *NoteService) List(ctx context.Context, ownerID string, view notes.View, label string) ([]models.Note, error) {
	list, err := s.notes.List(ctx, notes.Filter(ownerID, view, label))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return list, nil
}

func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*models.Note, error) {
	id, err := store.ParseID("id", id)
	if err != nil {
		return nil, apperror.Normalize(err)
	}
	n, err := s.notes.Get(ctx, ownerID, id)
	if err != nil {
		return nil, noteError(err)
	}
	return n, nil
}

func (s *NoteService) Create(ctx context.Context, ownerID string, req models.CreateNoteRequest) (*models.Note, error) {
	status, err := notes.InitialStatus(req.Archive, req.Trash)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, MsgConflictingFlags, err)
	}

	n := &models.Note{
		UserID:      ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: description(req.Description),
		Images:      notes.AddToSet(nil, req.Images...),
		Labels:      notes.AddToSet(nil, req.Labels...),
		Status:      status,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, apperror.Normalize(err)
	}

	created, err := s.notes.Get(ctx, ownerID, n.ID)
	if err != nil {
		return nil, noteError(err)
	}
	return created, nil
}

func description(d *string) string {
	if d == nil || strings.TrimSpace(*d) == "" {
		return models.DefaultDescription
	}
	return strings.TrimSpace(*d)
}

// mutate is the single write path: load the owned note, change it, store
// it. Concurrent writers race and the last one wins.
func (s *NoteService) mutate(ctx context.Context, ownerID, id string, change func(n *models.Note) error) (*models.Note, error) {
	n, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := change(n); err != nil {
		return nil, err
	}

	if err := s.notes.Update(ctx, n); err != nil {
		return nil, noteError(err)
	}
	return n, nil
}

func applyTransitions(n *models.Note, ts ...notes.Transition) error {
	for _, t := range ts {
		next, err := t.Apply(n.Status)
		var te *notes.TransitionError
		if errors.As(err, &te) {
			return apperror.Wrap(apperror.KindValidation, MsgRestoreFirst, err)
		}
		if err != nil {
			return apperror.Validation("Invalid input")
		}
		n.Status = next
	}
	return nil
}

// Update applies the fields present in req. Legacy archive/trash flags
// become transitions.
func (s *NoteService) Update(ctx context.Context, ownerID, id string, req models.UpdateNoteRequest) (*models.Note, error) {
	return s.mutate(ctx, ownerID, id, func(n *models.Note) error {
		if req.Title != nil {
			n.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			n.Description = description(req.Description)
		}
		if req.Images != nil {
			n.Images = notes.AddToSet(nil, *req.Images...)
		}
		if req.Labels != nil {
			n.Labels = notes.AddToSet(nil, *req.Labels...)
		}
		return applyTransitions(n, notes.FlagTransitions(req.Archive, req.Trash)...)
	})
}

func (s *NoteService) Transition(ctx context.Context, ownerID, id string, t notes.Transition) error {
	_, err := s.mutate(ctx, ownerID, id, func(n *models.Note) error {
		return applyTransitions(n, t)
	})
	return err
}

func nonEmpty(items []string) error {
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			return nil
		}
	}
	return apperror.Validation("Invalid input")
}

func (s *NoteService) AttachImages(ctx context.Context, ownerID, id string, images []string) (*models.Note, error) {
	if err := nonEmpty(images); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(n *models.Note) error {
		n.Images = notes.AddToSet(n.Images, images...)
		return nil
	})
}

func (s *NoteService) DetachImages(ctx context.Context, ownerID, id string, images []string) (*models.Note, error) {
	if err := nonEmpty(images); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(n *models.Note) error {
		n.Images = notes.RemoveFromSet(n.Images, images...)
		return nil
	})
}

func (s *NoteService) AttachLabels(ctx context.Context, ownerID, id string, labels []string) (*models.Note, error) {
	if err := nonEmpty(labels); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(n *models.Note) error {
		n.Labels = notes.AddToSet(n.Labels, labels...)
		return nil
	})
}

func (s *NoteService) DetachLabels(ctx context.Context, ownerID, id string, labels []string) (*models.Note, error) {
	if err := nonEmpty(labels); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(n *models.Note) error {
		n.Labels = notes.RemoveFromSet(n.Labels, labels...)
		return nil
	})
}

// DeleteForever removes a trashed note. Live notes are reported as not
// found so a stray delete never destroys one.
func (s *NoteService) DeleteForever(ctx context.Context, ownerID, id string) error {
	id, err := store.ParseID("id", id)
	if err != nil {
		return apperror.Normalize(err)
	}
	err = s.notes.DeleteTrashed(ctx, ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.Wrap(apperror.KindNotFound, MsgNoTrashedNote, err)
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Labels lists the distinct labels on the owner's notes.
func (s *NoteService) Labels(ctx context.Context, ownerID string) ([]string, error) {
	labels, err := s.notes.Labels(ctx, ownerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return labels, nil
}
