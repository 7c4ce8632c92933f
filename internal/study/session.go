// Package study holds the study-mode state machine: a deck, a cursor, and the
// flipped state of the card on display. Display effects go through a View
// supplied at construction, so the same session drives a rendered page or a
// terminal screen.
package study

import "fmt"

// Toggle button labels.
const (
	LabelEnter = "Enter Study Mode"
	labelExit  = "Exit Study Mode (%d/%d)"
)

// Card is one flashcard as seen by a study session. The session never mutates it.
type Card struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Favorite bool   `json:"favorite"`
}

// View receives the display effects of a session.
type View interface {
	// ShowNormalMode shows the browse container and hides the study container.
	ShowNormalMode()
	// ShowStudyMode hides the browse container and shows the study container.
	ShowStudyMode()
	ShowCard(question, answer string)
	SetFlipped(flipped bool)
	SetControlsVisible(visible bool)
	SetToggleLabel(label string)
}

// Session is the study-mode controller for one deck.
//
// Invariant: when active, the deck is non-empty and 0 <= cursor < len(deck).
// A Session is not safe for concurrent use; owners serialise access.
type Session struct {
	deck    []Card
	view    View
	active  bool
	cursor  int
	flipped bool
}

// NewSession creates an inactive session over a copy of deck.
func NewSession(deck []Card, view View) *Session {
	d := make([]Card, len(deck))
	copy(d, deck)
	return &Session{deck: d, view: view}
}

// Enter starts study mode at the first card. Entering with an empty deck does nothing.
// Entering again while active restarts at the first card.
func (s *Session) Enter() {
	if len(s.deck) == 0 {
		return
	}
	s.active = true
	s.cursor = 0

	s.view.ShowStudyMode()
	s.DisplayCurrent()
	s.view.SetToggleLabel(s.ToggleLabel())
	s.view.SetControlsVisible(true)
}

// Exit leaves study mode. The cursor is left alone; Enter resets it anyway.
func (s *Session) Exit() {
	s.active = false

	s.view.ShowNormalMode()
	s.view.SetToggleLabel(s.ToggleLabel())
	s.view.SetControlsVisible(false)
}

// Toggle enters study mode when inactive and exits when active.
func (s *Session) Toggle() {
	if s.active {
		s.Exit()
		return
	}
	s.Enter()
}

// Next moves to the following card. It stops at the last card.
func (s *Session) Next() {
	if !s.active || s.cursor >= len(s.deck)-1 {
		return
	}
	s.cursor++
	s.DisplayCurrent()
	s.view.SetToggleLabel(s.ToggleLabel())
}

// Previous moves to the preceding card. It stops at the first card.
func (s *Session) Previous() {
	if !s.active || s.cursor <= 0 {
		return
	}
	s.cursor--
	s.DisplayCurrent()
	s.view.SetToggleLabel(s.ToggleLabel())
}

// DisplayCurrent renders the card under the cursor question side up.
func (s *Session) DisplayCurrent() {
	if len(s.deck) == 0 {
		return
	}
	card := s.deck[s.cursor]
	s.view.ShowCard(card.Question, card.Answer)
	s.setFlipped(false)
}

// Flip shows the answer side of the displayed card.
func (s *Session) Flip() {
	if !s.active {
		return
	}
	s.setFlipped(true)
}

// Unflip shows the question side of the displayed card.
func (s *Session) Unflip() {
	if !s.active {
		return
	}
	s.setFlipped(false)
}

// ToggleFlip flips the displayed card to its other side.
func (s *Session) ToggleFlip() {
	if !s.active {
		return
	}
	s.setFlipped(!s.flipped)
}

func (s *Session) setFlipped(flipped bool) {
	s.flipped = flipped
	s.view.SetFlipped(flipped)
}

// Active reports whether the session is in study mode.
func (s *Session) Active() bool { return s.active }

// Cursor returns the index of the current card.
func (s *Session) Cursor() int { return s.cursor }

// Flipped reports whether the answer side is showing.
func (s *Session) Flipped() bool { return s.flipped }

// Len returns the deck size.
func (s *Session) Len() int { return len(s.deck) }

// Current returns the card under the cursor, if any.
func (s *Session) Current() (Card, bool) {
	if len(s.deck) == 0 {
		return Card{}, false
	}
	return s.deck[s.cursor], true
}

// Deck returns a copy of the deck in navigation order.
func (s *Session) Deck() []Card {
	d := make([]Card, len(s.deck))
	copy(d, s.deck)
	return d
}

// ToggleLabel returns the mode toggle label for the current state,
// e.g. "Exit Study Mode (2/5)" while studying the second of five cards.
func (s *Session) ToggleLabel() string {
	if !s.active {
		return LabelEnter
	}
	return fmt.Sprintf(labelExit, s.cursor+1, len(s.deck))
}
