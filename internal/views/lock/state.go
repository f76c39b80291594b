// Package lock implements the lock screen: a choose-user / enter-credential
// flow driven entirely by the backend's auth_* messages.
package lock

import (
	"slices"

	"github.com/newm-panel/tui/internal/client"
)

// Phase is the auth flow step shown on screen.
type Phase int

const (
	PhaseChooseUser Phase = iota
	PhaseEnterCred
)

func (p Phase) String() string {
	switch p {
	case PhaseChooseUser:
		return "choose_user"
	case PhaseEnterCred:
		return "enter_cred"
	default:
		return "unknown"
	}
}

// Effect is a side effect the caller must schedule after a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectFocusCredential asks for the credential field to take focus
	// once the enter-credential transition has finished.
	EffectFocusCredential
)

// State is the auth flow state. The zero value is not the initial state;
// use NewState.
type State struct {
	Phase        Phase
	Users        []string
	Cursor       int
	SelectedUser string
	Prompt       string
	Credential   string
	Checking     bool
	// Initial gates the one-time entry animation. It flips on the first
	// local action and never flips back.
	Initial bool
	// CredSeq counts credential requests so deferred focus can tell whether
	// it is still for the current prompt.
	CredSeq int
}

// NewState returns the initial state: choosing a user, no users known yet.
func NewState() State {
	return State{Phase: PhaseChooseUser, Initial: true}
}

// Reduce applies a backend envelope. Kinds other than auth_request_user
// and auth_request_cred leave the state unchanged.
func (s State) Reduce(e client.Envelope) (State, Effect) {
	switch e := e.(type) {
	case client.AuthRequestUser:
		s.Phase = PhaseChooseUser
		s.Checking = false
		s.Users = slices.Clone(e.Users)
		s.Cursor = 0
		return s, EffectNone

	case client.AuthRequestCred:
		s.Phase = PhaseEnterCred
		s.Checking = false
		s.SelectedUser = e.User
		s.Prompt = e.Message
		s.Credential = ""
		s.CredSeq++
		return s, EffectFocusCredential
	}
	return s, EffectNone
}

// ChooseUser picks user and returns the request to send. Users not in the
// current list are ignored and yield a nil envelope.
func (s State) ChooseUser(user string) (State, client.Envelope) {
	if s.Phase != PhaseChooseUser {
		return s, nil
	}
	i := slices.Index(s.Users, user)
	if i < 0 {
		return s, nil
	}
	s.Cursor = i
	s.Initial = false
	return s, client.AuthChooseUser{User: user}
}

// ChooseSelected picks the user under the cursor.
func (s State) ChooseSelected() (State, client.Envelope) {
	if s.Cursor < 0 || s.Cursor >= len(s.Users) {
		return s, nil
	}
	return s.ChooseUser(s.Users[s.Cursor])
}

// SubmitCredential sends the current credential as typed. No local
// validation is done; an empty credential is submitted too.
func (s State) SubmitCredential() (State, client.Envelope) {
	if s.Phase != PhaseEnterCred || s.Checking {
		return s, nil
	}
	s.Checking = true
	s.Initial = false
	return s, client.AuthEnterCred{Cred: s.Credential}
}

// EditCredential replaces the credential text. Edits while checking or
// outside enter_cred are dropped, not queued.
func (s State) EditCredential(v string) State {
	if !s.CanEdit() {
		return s
	}
	s.Credential = v
	return s
}

// CanEdit reports whether the credential field accepts input.
func (s State) CanEdit() bool {
	return s.Phase == PhaseEnterCred && !s.Checking
}

// SelectNext moves the user cursor forward, wrapping.
func (s State) SelectNext() State {
	if n := len(s.Users); n > 0 && s.Phase == PhaseChooseUser {
		s.Cursor = (s.Cursor + 1) % n
	}
	return s
}

// SelectPrev moves the user cursor back, wrapping.
func (s State) SelectPrev() State {
	if n := len(s.Users); n > 0 && s.Phase == PhaseChooseUser {
		s.Cursor = (s.Cursor - 1 + n) % n
	}
	return s
}

// FocusDue reports whether a deferred focus scheduled for seq should still
// take effect.
func (s State) FocusDue(seq int) bool {
	return seq == s.CredSeq && s.CanEdit()
}
