// Package announcement models editing a single announcement at a time.
package announcement

import (
	"errors"
	"fmt"
	"strings"
)

type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
)

var (
	ErrInvalidTransition = errors.New("invalid editor transition")
	ErrEmptyContent      = errors.New("announcement cannot be empty")
)

// Editor holds which announcement, if any, is being edited and its draft.
// Only one announcement is edited at a time.
type Editor struct {
	state State
	id    string
	draft string
}

func NewEditor() *Editor {
	return &Editor{state: StateViewing}
}

func (e *Editor) State() State { return e.state }

// EditingID is the announcement under edit, empty while viewing.
func (e *Editor) EditingID() string { return e.id }

func (e *Editor) Draft() string { return e.draft }

// Begin starts editing id with its current content as the draft.
func (e *Editor) Begin(id, content string) error {
	if e.state != StateViewing {
		return fmt.Errorf("%w: already editing %s", ErrInvalidTransition, e.id)
	}
	if id == "" {
		return fmt.Errorf("%w: missing announcement id", ErrInvalidTransition)
	}
	e.state = StateEditing
	e.id = id
	e.draft = content
	return nil
}

func (e *Editor) SetDraft(s string) error {
	if e.state != StateEditing {
		return fmt.Errorf("%w: not editing", ErrInvalidTransition)
	}
	e.draft = s
	return nil
}

// Commit returns the trimmed draft for saving and returns to viewing. An
// empty draft is rejected and the editor stays in editing.
func (e *Editor) Commit() (id, content string, err error) {
	if e.state != StateEditing {
		return "", "", fmt.Errorf("%w: not editing", ErrInvalidTransition)
	}
	content = strings.TrimSpace(e.draft)
	if content == "" {
		return "", "", ErrEmptyContent
	}
	id = e.id
	e.reset()
	return id, content, nil
}

// Cancel discards the draft. Cancelling while viewing is a no-op.
func (e *Editor) Cancel() {
	e.reset()
}

func (e *Editor) reset() {
	e.state = StateViewing
	e.id = ""
	e.draft = ""
}
