// Package session holds per-user presentation state that is never
// persisted: the delete confirmation flow and the chosen colormap.
package session

import (
	"sync"

	"tracker/internal/chart"
)

// State of the delete confirmation flow
type State int

const (
	Idle State = iota
	Selected
	Confirming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Confirming:
		return "confirming"
	default:
		return "unknown"
	}
}

// DeleteConfirmation guards book removal behind an explicit two-step
// confirmation. Changing the selection always drops back to Idle first.
type DeleteConfirmation struct {
	state  State
	target string
}

// Select records label as the removal target. A label that does not parse
// clears the selection.
func (d *DeleteConfirmation) Select(label string) State {
	d.state = Idle
	d.target = ""
	if _, _, ok := ParseBookLabel(label); ok {
		d.target = label
		d.state = Selected
	}
	return d.state
}

// RequestDelete moves Selected to Confirming; other states are unchanged
func (d *DeleteConfirmation) RequestDelete() State {
	if d.state == Selected {
		d.state = Confirming
	}
	return d.state
}

// Confirm returns the parsed target when the flow is Confirming and resets
// to Idle. ok is false when there was nothing to confirm.
func (d *DeleteConfirmation) Confirm() (title, author string, ok bool) {
	if d.state != Confirming {
		return "", "", false
	}
	title, author, ok = ParseBookLabel(d.target)
	d.reset()
	return title, author, ok
}

// Cancel abandons the flow
func (d *DeleteConfirmation) Cancel() {
	d.reset()
}

func (d *DeleteConfirmation) State() State {
	return d.state
}

// Target returns the selected label, empty when nothing is selected
func (d *DeleteConfirmation) Target() string {
	return d.target
}

func (d *DeleteConfirmation) reset() {
	d.state = Idle
	d.target = ""
}

// Session is the presentation state of a single chat user
type Session struct {
	Colormap chart.Colormap
	Removal  DeleteConfirmation
}

// New returns a session with default choices
func New() *Session {
	return &Session{Colormap: chart.DefaultColormap}
}

// Store keeps one Session per user ID
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating it on first use
func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = New()
		s.sessions[userID] = sess
	}
	return sess
}
