package engine

import (
	"slices"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

// Sequencer holds the pending steps of the active scene. Steps come out in
// declaration order; the only reordering is a choice's followup steps being
// spliced in at the front.
type Sequencer struct {
	pending []scenario.Step
}

func NewSequencer() *Sequencer {
	return &Sequencer{pending: make([]scenario.Step, 0)}
}

// Load replaces the pending queue.
func (s *Sequencer) Load(steps []scenario.Step) {
	s.pending = slices.Clone(steps)
	if s.pending == nil {
		s.pending = make([]scenario.Step, 0)
	}
}

// Prepend places steps ahead of everything already pending, preserving their order.
func (s *Sequencer) Prepend(steps []scenario.Step) {
	if len(steps) == 0 {
		return
	}
	s.pending = append(slices.Clone(steps), s.pending...)
}

// Pop removes and returns the front step. ok is false when the queue is exhausted.
func (s *Sequencer) Pop() (step scenario.Step, ok bool) {
	if len(s.pending) == 0 {
		return scenario.Step{}, false
	}
	step = s.pending[0]
	s.pending = s.pending[1:]
	return step, true
}

// Pending returns a copy of the queue.
func (s *Sequencer) Pending() []scenario.Step {
	return slices.Clone(s.pending)
}

func (s *Sequencer) Len() int {
	return len(s.pending)
}

func (s *Sequencer) Clear() {
	s.pending = make([]scenario.Step, 0)
}
