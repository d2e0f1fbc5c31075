package models

import "fmt"

// EditingState tells whether the form creates a new record or targets an
// existing one. The zero value is the create state.
type EditingState struct {
	id      int
	editing bool
}

// Creating returns the create-mode state.
func Creating() EditingState {
	return EditingState{}
}

// Editing returns the state targeting record id.
func Editing(id int) EditingState {
	return EditingState{id: id, editing: true}
}

// Target returns the edited record id and true, or 0 and false in create mode.
func (s EditingState) Target() (int, bool) {
	return s.id, s.editing
}

// IsEditing reports whether a record is being edited.
func (s EditingState) IsEditing() bool {
	return s.editing
}

func (s EditingState) String() string {
	if !s.editing {
		return "create"
	}
	return fmt.Sprintf("editing(%d)", s.id)
}
