package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"fastmemo/apperror"
	"fastmemo/imagestore"
	"fastmemo/models"
	"fastmemo/notes"
	"fastmemo/service"
)

// NoteHandler serves the note and label routes. Every operation is scoped
// to the authenticated principal.
type NoteHandler struct {
	notes   *service.NoteService
	uploads uploader
}

func NewNoteHandler(svc *service.NoteService, images imagestore.Store) *NoteHandler {
	return &NoteHandler{
		notes:   svc,
		uploads: uploader{store: images, now: time.Now},
	}
}

func noteData(n *models.Note) map[string]any {
	return map[string]any{"note": n}
}

// List serves one of the fixed views. GET /labels/{label} narrows the
// normal view to a label.
func (h *NoteHandler) List(view notes.View) HandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		me, err := principal(ctx)
		if err != nil {
			return err
		}

		label := mux.Vars(r)["label"]
		list, err := h.notes.List(ctx, me.ID, view, label)
		if err != nil {
			return err
		}

		logRequest(ctx, "debug", "Notes listed",
			zap.String("view", view.String()), zap.String("label", label), zap.Int("count", len(list)))
		return respondJSON(w, http.StatusOK, results(len(list), map[string]any{"notes": list}))
	}
}

// Get handles GET /notes/{id}
func (h *NoteHandler) Get(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	n, err := h.notes.Get(ctx, me.ID, mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(noteData(n)))
}

// Create handles POST /notes
func (h *NoteHandler) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.CreateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	n, err := h.notes.Create(ctx, me.ID, req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "Note created", zap.String("note_id", n.ID))
	return respondJSON(w, http.StatusCreated, success(noteData(n)))
}

// Update handles PATCH /notes/{id}. When the body changes the status the
// note is left out of the response.
func (h *NoteHandler) Update(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.UpdateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	n, err := h.notes.Update(ctx, me.ID, mux.Vars(r)["id"], req)
	if err != nil {
		return err
	}

	logRequest(ctx, "info", "Note updated", zap.String("note_id", n.ID))
	if req.HasTransition() {
		return respondJSON(w, http.StatusOK, success(map[string]any{}))
	}
	return respondJSON(w, http.StatusOK, success(noteData(n)))
}

// Transition handles PATCH /notes/{id}/{archive|unarchive|trash|restore}
func (h *NoteHandler) Transition(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	vars := mux.Vars(r)
	op, err := notes.ParseTransition(vars["op"])
	if err != nil {
		return apperror.Wrap(apperror.KindNotFound, "Can't find "+r.URL.Path+" on this server!", err)
	}

	if err := h.notes.Transition(ctx, me.ID, vars["id"], op); err != nil {
		return err
	}

	logRequest(ctx, "info", "Note transitioned", zap.String("note_id", vars["id"]), zap.String("op", string(op)))
	return respondJSON(w, http.StatusOK, success(map[string]any{}))
}

// AddImages handles POST /notes/{id}/images. Files arrive as multipart
// "images" parts; a JSON body attaches names already stored.
func (h *NoteHandler) AddImages(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}
	id := mux.Vars(r)["id"]

	// uploaded holds the files this request wrote to the store
	var names, uploaded []string
	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			return err
		}
		// the note must exist before anything is written to the store
		n, err := h.notes.Get(ctx, me.ID, id)
		if err != nil {
			return err
		}
		for i, fh := range r.MultipartForm.File["images"] {
			name, err := h.uploads.save(ctx, imagestore.Notes, "Note", n.ID, i, fh)
			if err != nil {
				h.uploads.discard(ctx, imagestore.Notes, names...)
				return err
			}
			names = append(names, name)
		}
		uploaded = names
	} else {
		var req models.ImagesRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		names = req.Names()
	}

	n, err := h.notes.AttachImages(ctx, me.ID, id, names)
	if err != nil {
		h.uploads.discard(ctx, imagestore.Notes, uploaded...)
		return err
	}

	logRequest(ctx, "info", "Images attached", zap.String("note_id", n.ID), zap.Int("count", len(names)))
	return respondJSON(w, http.StatusCreated, success(noteData(n)))
}

// RemoveImages handles DELETE /notes/{id}/images. Stored files are kept.
func (h *NoteHandler) RemoveImages(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.ImagesRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	n, err := h.notes.DetachImages(ctx, me.ID, mux.Vars(r)["id"], req.Names())
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(noteData(n)))
}

// AddLabels handles POST /notes/{id}/labels
func (h *NoteHandler) AddLabels(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.LabelsRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	n, err := h.notes.AttachLabels(ctx, me.ID, mux.Vars(r)["id"], req.Labels)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(noteData(n)))
}

// RemoveLabels handles DELETE /notes/{id}/labels
func (h *NoteHandler) RemoveLabels(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	var req models.LabelsRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	n, err := h.notes.DetachLabels(ctx, me.ID, mux.Vars(r)["id"], req.Labels)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(noteData(n)))
}

// Delete handles DELETE /notes/{id}; only trashed notes can be removed.
func (h *NoteHandler) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	id := mux.Vars(r)["id"]
	if err := h.notes.DeleteForever(ctx, me.ID, id); err != nil {
		return err
	}

	logRequest(ctx, "info", "Note deleted", zap.String("note_id", id))
	return noContent(w)
}

// Labels handles GET /labels
func (h *NoteHandler) Labels(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	me, err := principal(ctx)
	if err != nil {
		return err
	}

	labels, err := h.notes.Labels(ctx, me.ID)
	if err != nil {
		return err
	}
	return respondJSON(w, http.StatusOK, success(map[string]any{"labels": labels}))
}
