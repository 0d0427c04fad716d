// Package state holds the front end's state machine: every user action is
// an Action value, and Reduce is the only way state changes.
//
// Each upload or generation carries a Token. Only the result whose token
// matches the pending one is applied, so a superseded request can never
// overwrite a later one.
package state

import (
	"sync"

	"cardsmith/internal/domain"
)

// Token identifies one asynchronous request. Zero means none.
type Token uint64

type State struct {
	InputText string
	FileName  string
	Loading   bool
	Error     string
	// Prompt is a blocking validation message the user must dismiss.
	Prompt  string
	Cards   []domain.Flashcard
	Pending Token
}

// Action is the closed set of state transitions.
type Action interface {
	isAction()
}

type TextChanged struct{ Text string }

type UploadStarted struct {
	Token    Token
	FileName string
}

// UploadSucceeded applies either the returned cards (remote extraction)
// or the extracted text (local extraction).
type UploadSucceeded struct {
	Token  Token
	Result domain.UploadResult
}

type UploadFailed struct {
	Token Token
	Err   string
}

type GenerateStarted struct{ Token Token }

type GenerateSucceeded struct {
	Token Token
	Cards []domain.Flashcard
}

type GenerateFailed struct {
	Token Token
	Err   string
}

type ValidationFailed struct{ Message string }

type PromptDismissed struct{}

func (TextChanged) isAction()       {}
func (UploadStarted) isAction()     {}
func (UploadSucceeded) isAction()   {}
func (UploadFailed) isAction()      {}
func (GenerateStarted) isAction()   {}
func (GenerateSucceeded) isAction() {}
func (GenerateFailed) isAction()    {}
func (ValidationFailed) isAction()  {}
func (PromptDismissed) isAction()   {}

// Reduce returns the state after applying a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case TextChanged:
		s.InputText = a.Text

	case UploadStarted:
		s = start(s, a.Token)
		s.FileName = a.FileName

	case GenerateStarted:
		s = start(s, a.Token)

	case UploadSucceeded:
		if a.Token != s.Pending {
			return s
		}
		s = settle(s)
		if a.Result.Cards != nil {
			s.Cards = copyCards(a.Result.Cards)
			s.InputText = ""
		} else {
			s.InputText = a.Result.Text
		}

	case GenerateSucceeded:
		if a.Token != s.Pending {
			return s
		}
		s = settle(s)
		s.Cards = copyCards(a.Cards)

	case UploadFailed:
		if a.Token != s.Pending {
			return s
		}
		s = settle(s)
		s.Error = a.Err

	case GenerateFailed:
		if a.Token != s.Pending {
			return s
		}
		s = settle(s)
		s.Error = a.Err

	case ValidationFailed:
		s.Prompt = a.Message

	case PromptDismissed:
		s.Prompt = ""
	}
	return s
}

func start(s State, t Token) State {
	s.Error = ""
	s.Prompt = ""
	s.Loading = true
	s.Pending = t
	return s
}

func settle(s State) State {
	s.Loading = false
	s.Pending = 0
	return s
}

func copyCards(cards []domain.Flashcard) []domain.Flashcard {
	out := make([]domain.Flashcard, len(cards))
	copy(out, cards)
	return out
}

// Store serializes dispatches and hands out request tokens.
type Store struct {
	mu        sync.Mutex
	state     State
	lastToken Token
	listeners []func(State)
}

func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State returns a snapshot. Cards are never modified in place, so the
// slice may be shared.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextToken returns a token greater than every previous one.
func (s *Store) NextToken() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastToken++
	return s.lastToken
}

// Dispatch applies a and notifies subscribers with the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn to be called after every dispatch.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
