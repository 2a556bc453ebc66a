// Package notes turns route intent into owner-scoped note queries and
// applies lifecycle transitions and collection edits to notes.
package notes

import (
	"fmt"
	"strings"

	"fastmemo/models"
)

// View is the base list a route serves. It is fixed by the route and never
// taken from client input.
type View int

const (
	ViewNormal View = iota
	ViewArchive
	ViewTrash
)

func (v View) String() string {
	switch v {
	case ViewArchive:
		return "archive"
	case ViewTrash:
		return "trash"
	default:
		return "normal"
	}
}

// Status is the note status a view lists
func (v View) Status() models.Status {
	switch v {
	case ViewArchive:
		return models.StatusArchived
	case ViewTrash:
		return models.StatusTrashed
	default:
		return models.StatusNormal
	}
}

// Filter builds the scoped query for ownerID. label narrows the view when
// non-empty.
func Filter(ownerID string, view View, label string) models.NoteFilter {
	return models.NoteFilter{
		OwnerID: ownerID,
		Status:  view.Status(),
		Label:   strings.TrimSpace(label),
	}
}

// Transition is a lifecycle change requested through a dedicated endpoint
// or a legacy archive/trash flag.
type Transition string

const (
	Archive   Transition = "archive"
	Unarchive Transition = "unarchive"
	Trash     Transition = "trash"
	Restore   Transition = "restore"
)

// ParseTransition accepts the final path segment of a transition route.
func ParseTransition(s string) (Transition, error) {
	switch t := Transition(s); t {
	case Archive, Unarchive, Trash, Restore:
		return t, nil
	}
	return "", fmt.Errorf("unknown transition %q", s)
}

// TransitionError reports a transition the current status does not allow.
type TransitionError struct {
	From models.Status
	Op   Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s note", e.Op, e.From)
}

// Apply returns the status after t. A trashed note must be restored before
// it can be archived or unarchived; every other pair is allowed and
// idempotent.
func (t Transition) Apply(from models.Status) (models.Status, error) {
	switch t {
	case Trash:
		return models.StatusTrashed, nil
	case Restore:
		if from == models.StatusTrashed {
			return models.StatusNormal, nil
		}
		return from, nil
	case Archive, Unarchive:
		if from == models.StatusTrashed {
			return from, &TransitionError{From: from, Op: t}
		}
		if t == Archive {
			return models.StatusArchived, nil
		}
		return models.StatusNormal, nil
	}
	return from, fmt.Errorf("unknown transition %q", t)
}

// FlagTransitions translates the legacy boolean flags of an update body.
// Trash is applied before archive so {"trash":false,"archive":true}
// restores and then archives.
func FlagTransitions(archive, trash *bool) []Transition {
	var ts []Transition
	if trash != nil {
		if *trash {
			ts = append(ts, Trash)
		} else {
			ts = append(ts, Restore)
		}
	}
	if archive != nil {
		if *archive {
			ts = append(ts, Archive)
		} else {
			ts = append(ts, Unarchive)
		}
	}
	return ts
}

// InitialStatus is the status of a newly created note. Asking for both
// flags at once is rejected.
func InitialStatus(archive, trash bool) (models.Status, error) {
	switch {
	case archive && trash:
		return "", fmt.Errorf("a note cannot be archived and trashed at once")
	case trash:
		return models.StatusTrashed, nil
	case archive:
		return models.StatusArchived, nil
	}
	return models.StatusNormal, nil
}
