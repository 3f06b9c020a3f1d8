// Package editor holds the authoring state around a curriculum tree: which
// module and lesson are expanded, and the add/edit dialogs whose drafts are
// validated before they touch the tree.
package editor

import (
	"errors"

	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/forms"
)

var (
	// ErrModalClosed is returned when saving a dialog that is not open.
	ErrModalClosed = errors.New("editor: dialog is not open")
	// ErrNotFound is returned when an edit targets a node that does not exist.
	ErrNotFound = errors.New("editor: node not found")
)

// OpenState tracks the one expanded item of a level.
type OpenState struct {
	id   curriculum.ID
	open bool
}

// Toggle opens id, closing whatever was open. Toggling the open id closes it.
func (s *OpenState) Toggle(id curriculum.ID) {
	if s.open && s.id == id {
		s.Close()
		return
	}
	s.id, s.open = id, true
}

// IsOpen reports whether id is the expanded item.
func (s OpenState) IsOpen(id curriculum.ID) bool {
	return s.open && s.id == id
}

// Current returns the expanded id, if any.
func (s OpenState) Current() (curriculum.ID, bool) {
	return s.id, s.open
}

// Close collapses the level.
func (s *OpenState) Close() {
	s.id, s.open = curriculum.ID{}, false
}

// Validator is a draft that can check itself.
type Validator interface {
	Validate() forms.Errors
}

// Modal is an add/edit dialog for T. It is Closed, open for Add (no
// initial value) or open for Edit (initial value set).
type Modal[T any] struct {
	open    bool
	initial *T
}

// OpenAdd opens the dialog empty.
func (m *Modal[T]) OpenAdd() {
	m.open, m.initial = true, nil
}

// OpenEdit opens the dialog seeded with v.
func (m *Modal[T]) OpenEdit(v T) {
	m.open, m.initial = true, &v
}

// IsOpen reports whether the dialog is showing.
func (m *Modal[T]) IsOpen() bool { return m.open }

// Initial returns the entity being edited; ok is false in Add mode.
func (m *Modal[T]) Initial() (T, bool) {
	if m.initial == nil {
		var zero T
		return zero, false
	}
	return *m.initial, true
}

// Cancel discards the dialog.
func (m *Modal[T]) Cancel() {
	m.open, m.initial = false, nil
}

// Save validates d. On failure the dialog stays open and nothing is
// committed; on success commit runs with the edited entity (nil when adding)
// and the dialog closes.
func (m *Modal[T]) Save(d Validator, commit func(initial *T)) (forms.Errors, error) {
	if !m.open {
		return nil, ErrModalClosed
	}
	if errs := d.Validate(); !errs.OK() {
		return errs, nil
	}
	commit(m.initial)
	m.Cancel()
	return nil, nil
}
