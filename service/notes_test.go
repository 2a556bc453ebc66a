package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastmemo/apperror"
	"fastmemo/models"
	"fastmemo/notes"
	"fastmemo/store"
)

func ptr[T any](v T) *T { return &v }

func TestNoteOwnershipIsolation(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo())
	ctx := context.Background()
	alice, bob := store.NewID(), store.NewID()

	n, err := svc.Create(ctx, alice, models.CreateNoteRequest{Title: "mine", User: bob})
	require.NoError(t, err)
	assert.Equal(t, alice, n.UserID)
	assert.Equal(t, models.DefaultDescription, n.Description)

	_, err = svc.Get(ctx, bob, n.ID)
	requireKind(t, err, apperror.KindNotFound, MsgNoteNotFound)

	_, err = svc.Update(ctx, bob, n.ID, models.UpdateNoteRequest{Title: ptr("stolen")})
	requireKind(t, err, apperror.KindNotFound, MsgNoteNotFound)

	err = svc.Transition(ctx, bob, n.ID, notes.Trash)
	requireKind(t, err, apperror.KindNotFound, MsgNoteNotFound)

	list, err := svc.List(ctx, bob, notes.ViewNormal, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Update(ctx, alice, n.ID, models.UpdateNoteRequest{User: bob, Title: ptr("still mine")})
	require.NoError(t, err)
	got, err := svc.Get(ctx, alice, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "still mine", got.Title)
	assert.Equal(t, alice, got.UserID)
}

func TestNoteInvalidID(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo())
	_, err := svc.Get(context.Background(), store.NewID(), "abc")
	requireKind(t, err, apperror.KindValidation, "Invalid id: abc")
}

func TestNoteArchiveFlow(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo())
	ctx := context.Background()
	owner := store.NewID()

	n, err := svc.Create(ctx, owner, models.CreateNoteRequest{Title: "groceries"})
	require.NoError(t, err)

	count := func(view notes.View) int {
		list, err := svc.List(ctx, owner, view, "")
		require.NoError(t, err)
		return len(list)
	}

	require.NoError(t, svc.Transition(ctx, owner, n.ID, notes.Archive))
	assert.Equal(t, 0, count(notes.ViewNormal))
	assert.Equal(t, 1, count(notes.ViewArchive))

	require.NoError(t, svc.Transition(ctx, owner, n.ID, notes.Archive))
	assert.Equal(t, 1, count(notes.ViewArchive))

	require.NoError(t, svc.Transition(ctx, owner, n.ID, notes.Trash))
	assert.Equal(t, 0, count(notes.ViewArchive))
	assert.Equal(t, 1, count(notes.ViewTrash))

	err = svc.Transition(ctx, owner, n.ID, notes.Unarchive)
	requireKind(t, err, apperror.KindValidation, MsgRestoreFirst)

	require.NoError(t, svc.Transition(ctx, owner, n.ID, notes.Restore))
	got, err := svc.Get(ctx, owner, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, got.Status)
}

func TestNoteLegacyFlags(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo())
	ctx := context.Background()
	owner := store.NewID()

	_, err := svc.Create(ctx, owner, models.CreateNoteRequest{Title: "x", Archive: true, Trash: true})
	requireKind(t, err, apperror.KindValidation, MsgConflictingFlags)

	n, err := svc.Create(ctx, owner, models.CreateNoteRequest{Title: "x", Trash: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrashed, n.Status)

	updated, err := svc.Update(ctx, owner, n.ID, models.UpdateNoteRequest{Trash: ptr(false), Archive: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, updated.Status)

	updated, err = svc.Update(ctx, owner, n.ID, models.UpdateNoteRequest{Archive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, updated.Status)
}

func TestNoteImageAndLabelSets(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo())
	ctx := context.Background()
	owner := store.NewID()

	n, err := svc.Create(ctx, owner, models.CreateNoteRequest{Title: "x", Images: []string{"a.png", "a.png"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, n.Images)

	n, err = svc.AttachImages(ctx, owner, n.ID, []string{"b.png", "a.png", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, n.Images)

	n, err = svc.DetachImages(ctx, owner, n.ID, []string{"a.png", "missing.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.png"}, n.Images)

	_, err = svc.AttachImages(ctx, owner, n.ID, nil)
	requireKind(t, err, apperror.KindValidation, "Invalid input")

	n, err = svc.AttachLabels(ctx, owner, n.ID, []string{"work", "home", "work"})
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "home"}, n.Labels)

	n, err = svc.DetachLabels(ctx, owner, n.ID, []string{"work"})
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, n.Labels)

	labels, err := svc.Labels(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, labels)

	list, err := svc.List(ctx, owner, notes.ViewNormal, "home")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, owner, notes.ViewNormal, "work")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoteDeleteForeverOnlyWhenTrashed(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo())
	ctx := context.Background()
	owner := store.NewID()

	n, err := svc.Create(ctx, owner, models.CreateNoteRequest{Title: "x"})
	require.NoError(t, err)

	err = svc.DeleteForever(ctx, owner, n.ID)
	requireKind(t, err, apperror.KindNotFound, MsgNoTrashedNote)

	require.NoError(t, svc.Transition(ctx, owner, n.ID, notes.Trash))
	require.NoError(t, svc.DeleteForever(ctx, owner, n.ID))

	err = svc.DeleteForever(ctx, owner, n.ID)
	requireKind(t, err, apperror.KindNotFound, MsgNoTrashedNote)
}
