package domain

import "errors"

var (
	// ErrGeneration matches every *GenerationError via errors.Is.
	ErrGeneration = errors.New("quiz generation failed")
	// ErrInvalidRequest is returned when generation preconditions are not met.
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrModuleNotFound indicates no module with the given id exists.
	ErrModuleNotFound = errors.New("module not found")
	// ErrEmptyModule is returned when a session is started for a module without questions.
	ErrEmptyModule = errors.New("module has no questions")
	// ErrInvalidModule is returned for a module whose questions break the question shape.
	ErrInvalidModule = errors.New("invalid module")
	// ErrOptionNotFound indicates a selected option index is outside the question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAnswerPending is returned when continuing before the current question is resolved.
	ErrAnswerPending = errors.New("current question has not been answered")
	// ErrSessionComplete is returned for actions on a finished session.
	ErrSessionComplete = errors.New("session already complete")
	// ErrSessionClosed is returned for actions on an abandoned session.
	ErrSessionClosed = errors.New("session closed")
	// ErrEmptyUsername is returned when logging in with a blank name.
	ErrEmptyUsername = errors.New("username is required")
	// ErrNotLoggedIn is returned when an action requires a current user.
	ErrNotLoggedIn = errors.New("no user logged in")
)

// Generation stages reported by GenerationError.
const (
	StageRequest  = "request"
	StageParse    = "parse"
	StageValidate = "validate"
)

// GenerationError wraps any failure of the generation pipeline.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return "generate quiz: " + e.Stage + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
