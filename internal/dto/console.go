package dto

import "time"

// RowAction names an action a table row exposes.
type RowAction string

const (
	RowActionEdit   RowAction = "edit"
	RowActionDelete RowAction = "delete"
)

// MessageKind styles a transient message.
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// StudentRow is the rendered form of one student record.
type StudentRow struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	StudentID string      `json:"student_id"`
	Major     string      `json:"major"`
	Year      int         `json:"year"`
	Actions   []RowAction `json:"actions"`
}

// StudentForm holds the form fields exactly as typed.
type StudentForm struct {
	ID        string `json:"id" form:"id"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	StudentID string `json:"student_id" form:"student_id"`
	Major     string `json:"major" form:"major"`
	Year      string `json:"year" form:"year"`
}

// FormChrome carries the mode-dependent decorations of the form.
type FormChrome struct {
	Title         string `json:"title"`
	SubmitLabel   string `json:"submit_label"`
	CancelVisible bool   `json:"cancel_visible"`
}

// Message is the content of the message region.
type Message struct {
	Text    string      `json:"text"`
	Kind    MessageKind `json:"kind"`
	ShownAt time.Time   `json:"shown_at"`
}

// ConsoleState is everything a surface needs to draw the console.
type ConsoleState struct {
	Rows      []StudentRow `json:"rows"`
	Form      StudentForm  `json:"form"`
	Chrome    FormChrome   `json:"chrome"`
	Message   *Message     `json:"message,omitempty"`
	Editing   bool         `json:"editing"`
	EditingID *int         `json:"editing_id,omitempty"`
	FocusForm bool         `json:"focus_form"`
}

// DispatchRequest is the optional body of a JSON row action.
type DispatchRequest struct {
	Confirm bool `json:"confirm"`
}
