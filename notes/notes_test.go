package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastmemo/models"
)

func TestFilter(t *testing.T) {
	f := Filter("owner", ViewNormal, "")
	assert.Equal(t, models.NoteFilter{OwnerID: "owner", Status: models.StatusNormal}, f)

	f = Filter("owner", ViewArchive, " work ")
	assert.Equal(t, models.StatusArchived, f.Status)
	assert.Equal(t, "work", f.Label)

	assert.Equal(t, models.StatusTrashed, Filter("owner", ViewTrash, "").Status)
}

func TestTransitionApply(t *testing.T) {
	tests := []struct {
		from    models.Status
		op      Transition
		want    models.Status
		wantErr bool
	}{
		{models.StatusNormal, Archive, models.StatusArchived, false},
		{models.StatusNormal, Unarchive, models.StatusNormal, false},
		{models.StatusNormal, Trash, models.StatusTrashed, false},
		{models.StatusNormal, Restore, models.StatusNormal, false},
		{models.StatusArchived, Archive, models.StatusArchived, false},
		{models.StatusArchived, Unarchive, models.StatusNormal, false},
		{models.StatusArchived, Trash, models.StatusTrashed, false},
		{models.StatusArchived, Restore, models.StatusArchived, false},
		{models.StatusTrashed, Archive, models.StatusTrashed, true},
		{models.StatusTrashed, Unarchive, models.StatusTrashed, true},
		{models.StatusTrashed, Trash, models.StatusTrashed, false},
		{models.StatusTrashed, Restore, models.StatusNormal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.op), func(t *testing.T) {
			got, err := tt.op.Apply(tt.from)
			if tt.wantErr {
				var te *TransitionError
				require.ErrorAs(t, err, &te)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransition(t *testing.T) {
	for _, s := range []string{"archive", "unarchive", "trash", "restore"} {
		got, err := ParseTransition(s)
		require.NoError(t, err)
		assert.Equal(t, Transition(s), got)
	}
	_, err := ParseTransition("delete")
	require.Error(t, err)
}

func TestFlagTransitions(t *testing.T) {
	yes, no := true, false

	assert.Empty(t, FlagTransitions(nil, nil))
	assert.Equal(t, []Transition{Archive}, FlagTransitions(&yes, nil))
	assert.Equal(t, []Transition{Unarchive}, FlagTransitions(&no, nil))
	assert.Equal(t, []Transition{Trash}, FlagTransitions(nil, &yes))
	assert.Equal(t, []Transition{Restore, Archive}, FlagTransitions(&yes, &no))
}

func TestInitialStatus(t *testing.T) {
	s, err := InitialStatus(false, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, s)

	s, err = InitialStatus(true, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, s)

	s, err = InitialStatus(false, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrashed, s)

	_, err = InitialStatus(true, true)
	require.Error(t, err)
}

func TestAddToSet(t *testing.T) {
	assert.Equal(t, []string{"a.png", "b.png"}, AddToSet(nil, "a.png", "a.png", "b.png"))
	assert.Equal(t, []string{"x", "a", "b"}, AddToSet([]string{"x", "a"}, "b", "x", " ", "a"))
	assert.Empty(t, AddToSet(nil))
}

func TestRemoveFromSet(t *testing.T) {
	assert.Equal(t, []string{"b"}, RemoveFromSet([]string{"a", "b", "c"}, "a", "c", "zzz"))
	assert.Equal(t, []string{"a"}, RemoveFromSet([]string{"a"}))
	assert.Empty(t, RemoveFromSet([]string{"a"}, "a"))
}
