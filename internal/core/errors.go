package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
)

// ErrNoActiveSession is returned by phase operations when no session handle
// was given and no session is active.
var ErrNoActiveSession = errors.New("no active digest session: run 'sdg new <input>' first")

// ErrUnattributedAnswer is returned when a reply cannot be matched to any
// pending question. Nothing is recorded in that case.
var ErrUnattributedAnswer = errors.New("could not attribute the answer to a pending question: number your answers (1. ... 2. ...) or answer one question at a time")

// ErrNoPendingQuestions is returned by answer when nothing is waiting.
var ErrNoPendingQuestions = errors.New("no pending questions: run 'sdg questions' first")

// PrerequisiteError reports that an operation needs the output of an earlier
// phase that has not completed yet.
type PrerequisiteError struct {
	Operation string
	Requires  models.Phase
	Command   string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%s needs the %s phase to be completed: run 'sdg %s' first", e.Operation, e.Requires, e.Command)
}

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a commit and lists every offending field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed:\n  - " + strings.Join(parts, "\n  - ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// OverrideRequiredError is returned by destructive actions invoked without
// an explicit override.
type OverrideRequiredError struct {
	Action string
	Reason string
}

func (e *OverrideRequiredError) Error() string {
	return fmt.Sprintf("%s refused: %s (use --force to override)", e.Action, e.Reason)
}
