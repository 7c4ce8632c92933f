package study

import (
	"fmt"
	"math/rand"
	"testing"
)

// recorder is a View that keeps the last value of every effect and counts calls.
type recorder struct {
	PageState
	calls map[string]int
}

func newRecorder() *recorder {
	return &recorder{PageState: *NewPageState(), calls: make(map[string]int)}
}

func (r *recorder) ShowNormalMode()   { r.calls["normal"]++; r.PageState.ShowNormalMode() }
func (r *recorder) ShowStudyMode()    { r.calls["study"]++; r.PageState.ShowStudyMode() }
func (r *recorder) SetFlipped(f bool) { r.calls["flipped"]++; r.PageState.SetFlipped(f) }

func (r *recorder) ShowCard(q, a string) {
	r.calls["card"]++
	r.PageState.ShowCard(q, a)
}

func arithmeticDeck() []Card {
	return []Card{
		{ID: 1, Question: "2+2", Answer: "4"},
		{ID: 2, Question: "3+3", Answer: "6"},
	}
}

func deckOf(n int) []Card {
	deck := make([]Card, n)
	for i := range deck {
		deck[i] = Card{ID: int64(i + 1), Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)}
	}
	return deck
}

func TestNewSessionHasNoViewEffects(t *testing.T) {
	view := newRecorder()
	s := NewSession(arithmeticDeck(), view)

	if s.Active() {
		t.Error("new session should be inactive")
	}
	if len(view.calls) != 0 {
		t.Errorf("constructor touched the view: %v", view.calls)
	}
}

func TestEnterShowsFirstCard(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("deck of %d", n), func(t *testing.T) {
			view := newRecorder()
			deck := deckOf(n)
			s := NewSession(deck, view)

			s.Enter()

			if !s.Active() {
				t.Fatal("expected active after Enter")
			}
			if s.Cursor() != 0 {
				t.Errorf("Cursor() = %d, want 0", s.Cursor())
			}
			if view.Question != deck[0].Question || view.Answer != deck[0].Answer {
				t.Errorf("displayed %q/%q, want %q/%q", view.Question, view.Answer, deck[0].Question, deck[0].Answer)
			}
			if !view.NormalHidden || view.StudyHidden {
				t.Error("expected study container visible and normal container hidden")
			}
			if !view.ControlsVisible {
				t.Error("expected controls visible")
			}
			want := fmt.Sprintf("Exit Study Mode (1/%d)", n)
			if view.ToggleLabel != want {
				t.Errorf("label = %q, want %q", view.ToggleLabel, want)
			}
		})
	}
}

func TestEnterEmptyDeckIsNoOp(t *testing.T) {
	view := newRecorder()
	s := NewSession(nil, view)

	s.Enter()

	if s.Active() {
		t.Error("Enter on an empty deck must leave the session inactive")
	}
	if len(view.calls) != 0 {
		t.Errorf("Enter on an empty deck touched the view: %v", view.calls)
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() on an empty deck should report false")
	}

	s.Toggle()
	if s.Active() {
		t.Error("Toggle on an empty deck must leave the session inactive")
	}
}

func TestNavigationClamps(t *testing.T) {
	const n = 5
	s := NewSession(deckOf(n), newRecorder())
	s.Enter()

	for i := 0; i < 2*n; i++ {
		s.Next()
		if s.Cursor() > n-1 {
			t.Fatalf("cursor %d exceeded %d", s.Cursor(), n-1)
		}
	}
	if s.Cursor() != n-1 {
		t.Errorf("Cursor() = %d after many Next, want %d", s.Cursor(), n-1)
	}

	for i := 0; i < 2*n; i++ {
		s.Previous()
		if s.Cursor() < 0 {
			t.Fatalf("cursor %d went negative", s.Cursor())
		}
	}
	if s.Cursor() != 0 {
		t.Errorf("Cursor() = %d after many Previous, want 0", s.Cursor())
	}
}

func TestRandomWalkKeepsCursorInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 8; n++ {
		s := NewSession(deckOf(n), newRecorder())
		s.Enter()
		for step := 0; step < 200; step++ {
			switch rng.Intn(5) {
			case 0, 1:
				s.Next()
			case 2, 3:
				s.Previous()
			case 4:
				s.ToggleFlip()
			}
			if c := s.Cursor(); c < 0 || c >= n {
				t.Fatalf("deck of %d: cursor %d out of range at step %d", n, c, step)
			}
		}
	}
}

func TestNextPreviousRoundTrip(t *testing.T) {
	const n = 6
	for start := 0; start < n-1; start++ {
		s := NewSession(deckOf(n), newRecorder())
		s.Enter()
		for i := 0; i < start; i++ {
			s.Next()
		}

		s.Next()
		s.Previous()

		if s.Cursor() != start {
			t.Errorf("from %d: Next then Previous landed on %d", start, s.Cursor())
		}
	}
}

func TestNavigationResetsFlip(t *testing.T) {
	tests := []struct {
		name string
		prep func(s *Session)
		act  func(s *Session)
	}{
		{"next", func(s *Session) {}, (*Session).Next},
		{"previous", (*Session).Next, (*Session).Previous},
		{"enter", func(s *Session) {}, (*Session).Enter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newRecorder()
			s := NewSession(deckOf(3), view)
			s.Enter()
			tt.prep(s)
			s.Flip()
			if !s.Flipped() || !view.Flipped {
				t.Fatal("Flip did not show the answer")
			}

			tt.act(s)

			if s.Flipped() || view.Flipped {
				t.Errorf("%s left the card flipped", tt.name)
			}
		})
	}
}

func TestFlipDoesNotMoveCursor(t *testing.T) {
	s := NewSession(deckOf(3), newRecorder())
	s.Enter()
	s.Next()

	s.Flip()
	s.ToggleFlip()
	s.ToggleFlip()
	s.Unflip()

	if s.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want 1", s.Cursor())
	}
	if s.Flipped() {
		t.Error("expected question side after Unflip")
	}
}

func TestArithmeticScenario(t *testing.T) {
	view := newRecorder()
	s := NewSession(arithmeticDeck(), view)

	steps := []struct {
		op    func()
		want  string
		label string
	}{
		{s.Enter, "2+2", "Exit Study Mode (1/2)"},
		{s.Next, "3+3", "Exit Study Mode (2/2)"},
		{s.Next, "3+3", "Exit Study Mode (2/2)"},
		{s.Previous, "2+2", "Exit Study Mode (1/2)"},
	}

	for i, step := range steps {
		step.op()
		if view.Question != step.want {
			t.Errorf("step %d: displayed %q, want %q", i, view.Question, step.want)
		}
		if view.ToggleLabel != step.label {
			t.Errorf("step %d: label %q, want %q", i, view.ToggleLabel, step.label)
		}
	}
}

func TestExitKeepsCursorAndReentryResets(t *testing.T) {
	view := newRecorder()
	s := NewSession(deckOf(4), view)
	s.Enter()
	s.Next()
	s.Next()

	s.Exit()

	if s.Active() {
		t.Error("expected inactive after Exit")
	}
	if s.Cursor() != 2 {
		t.Errorf("Exit moved the cursor to %d", s.Cursor())
	}
	if view.NormalHidden || !view.StudyHidden {
		t.Error("expected normal container visible after Exit")
	}
	if view.ControlsVisible {
		t.Error("expected controls hidden after Exit")
	}
	if view.ToggleLabel != LabelEnter {
		t.Errorf("label = %q, want %q", view.ToggleLabel, LabelEnter)
	}

	s.Enter()
	if s.Cursor() != 0 {
		t.Errorf("re-entry cursor = %d, want 0", s.Cursor())
	}
	if view.Question != "q0" {
		t.Errorf("re-entry displayed %q, want q0", view.Question)
	}
}

func TestReenterWhileActiveRestarts(t *testing.T) {
	s := NewSession(deckOf(3), newRecorder())
	s.Enter()
	s.Next()

	s.Enter()

	if !s.Active() || s.Cursor() != 0 {
		t.Errorf("got active=%v cursor=%d, want active at 0", s.Active(), s.Cursor())
	}
}

func TestInactiveNavigationIsIgnored(t *testing.T) {
	view := newRecorder()
	s := NewSession(deckOf(3), view)

	s.Next()
	s.Previous()
	s.Flip()
	s.ToggleFlip()

	if s.Cursor() != 0 || s.Flipped() {
		t.Errorf("inactive session changed: cursor=%d flipped=%v", s.Cursor(), s.Flipped())
	}
	if len(view.calls) != 0 {
		t.Errorf("inactive navigation touched the view: %v", view.calls)
	}
}

func TestToggleAlternates(t *testing.T) {
	s := NewSession(deckOf(2), newRecorder())

	s.Toggle()
	if !s.Active() {
		t.Fatal("first Toggle should enter")
	}
	s.Toggle()
	if s.Active() {
		t.Fatal("second Toggle should exit")
	}
}

func TestSessionCopiesDeck(t *testing.T) {
	deck := arithmeticDeck()
	s := NewSession(deck, newRecorder())
	deck[0].Question = "changed"

	s.Enter()
	card, ok := s.Current()
	if !ok || card.Question != "2+2" {
		t.Errorf("Current() = %+v, %v; session should hold its own copy", card, ok)
	}
	if got := s.Deck(); len(got) != 2 || got[1].Answer != "6" {
		t.Errorf("Deck() = %+v", got)
	}
}
