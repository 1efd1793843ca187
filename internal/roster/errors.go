package roster

import "fmt"

// User-visible validation messages.
const (
	MsgProjectNameEmpty = "Project name cannot be empty"
	MsgInvalidWindow    = "End time must be after start time"
	MsgHourOutOfRange   = "Hours must be between 0 and 23"
	MsgRoleNameEmpty    = "Role name cannot be empty"
	MsgRoleExists       = "Role already exists"
	MsgVolunteerEmpty   = "Please enter your name"
	MsgUnknownSlot      = "Unknown time slot"
	MsgUnknownRole      = "Unknown role"
	MsgSaveFailed       = "Failed to save roster. Please try again."
	MsgLoadFailed       = "Failed to load projects. Please try refreshing the page."
)

// ValidationError rejects an operation before any state changes.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError is returned by direct lookups of a missing project.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project not found: %s", e.ID)
}

// PersistenceError wraps a failure of the remote store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
