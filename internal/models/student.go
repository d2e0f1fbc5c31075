package models

import "time"

// Student is a record served by the students backend.
type Student struct {
	ID        int        `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	StudentID string     `json:"student_id"`
	Major     string     `json:"major"`
	Year      int        `json:"year"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// StudentPayload is the body of create and update requests. Year is nil when
// the typed value was not a number and is sent as JSON null.
type StudentPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
	Major     string `json:"major"`
	Year      *int   `json:"year"`
}

// BackendError is the failure body returned by the backend on create and update.
type BackendError struct {
	Error string `json:"error"`
}

// FullName joins first and last name the way the table displays it.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
