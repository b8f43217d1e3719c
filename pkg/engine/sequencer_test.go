package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/pkg/conditionals"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

func TestSequencer(t *testing.T) {
	s := NewSequencer()
	_, ok := s.Pop()
	assert.False(t, ok)

	script := []scenario.Step{scenario.Narration("one"), scenario.Narration("two")}
	s.Load(script)
	script[0].Text = "mutated"

	step, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "one", step.Text, "Load copies its input")

	s.Prepend([]scenario.Step{scenario.Line("A", "x"), scenario.Line("B", "y")})
	assert.Equal(t, 3, s.Len())

	var order []string
	for {
		step, ok := s.Pop()
		if !ok {
			break
		}
		order = append(order, step.Text)
	}
	assert.Equal(t, []string{"x", "y", "two"}, order)
}

func TestSequencer_PendingIsCopy(t *testing.T) {
	s := NewSequencer()
	s.Load([]scenario.Step{scenario.Narration("one")})

	p := s.Pending()
	p[0].Text = "changed"

	step, _ := s.Pop()
	assert.Equal(t, "one", step.Text)
	assert.NotNil(t, s.Pending())
}

type fakeView struct {
	hidden    bool
	suspicion int
}

func (f fakeView) IsHiddenUnlocked() bool { return f.hidden }
func (f fakeView) GetSuspicionLevel() int { return f.suspicion }

func TestVisibleChoices(t *testing.T) {
	choices := []scenario.Choice{
		{ID: "always", Text: "Always"},
		{ID: "doubt", Text: "Doubt", Condition: &conditionals.Predicate{Type: conditionals.PredicateSuspicionAtLeast, Threshold: 1}},
		{ID: "truth", Text: "Truth", Condition: &conditionals.Predicate{Type: conditionals.PredicateHiddenUnlocked}},
		{ID: "odd", Text: "Odd", Condition: &conditionals.Predicate{Type: "moon_phase"}},
	}

	tests := []struct {
		name     string
		view     fakeView
		expected []string
	}{
		{name: "fresh", view: fakeView{}, expected: []string{"always"}},
		{name: "negative suspicion", view: fakeView{suspicion: -2}, expected: []string{"always"}},
		{name: "suspicious", view: fakeView{suspicion: 1}, expected: []string{"always", "doubt"}},
		{name: "unlocked only", view: fakeView{hidden: true}, expected: []string{"always", "truth"}},
		{name: "everything", view: fakeView{hidden: true, suspicion: 5}, expected: []string{"always", "doubt", "truth"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleChoices(choices, tt.view)
			assert.Equal(t, tt.expected, choiceIDs(got))
			assert.Equal(t, got, VisibleChoices(choices, tt.view), "same inputs give the same result")
		})
	}

	assert.NotNil(t, VisibleChoices(nil, fakeView{}))
}

func TestTee(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	tee := Tee{a, b}

	tee.RenderLine("Elder", "Stay.")
	tee.NotifyCounters(2, 1)
	tee.TransitionToEnding("A", scenario.Ending{Title: "Home"})

	assert.Equal(t, a.Frames(), b.Frames())
	assert.Equal(t, []FrameKind{FrameLine, FrameCounters, FrameEnding}, a.Kinds())
}

func TestRecorder_HidesChoiceInternals(t *testing.T) {
	r := NewRecorder()
	r.RenderChoices([]scenario.Choice{{
		ID:        "secret",
		Text:      "Secret",
		Condition: &conditionals.Predicate{Type: conditionals.PredicateHiddenUnlocked},
		Action:    &scenario.Action{Type: scenario.ActionGotoEnding, Ending: "C"},
	}})

	frames := r.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, []ChoiceView{{ID: "secret", Text: "Secret"}}, frames[0].Choices)
}
