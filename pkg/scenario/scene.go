package scenario

import "github.com/jwebster45206/blossom-engine/pkg/conditionals"

// StepType tags the Step variant.
type StepType string

const (
	StepNarration StepType = "narration"
	StepLine      StepType = "line"
	StepChoice    StepType = "choice"
)

// Scene is a self-contained unit of background, dialogue script and hotspots.
type Scene struct {
	Background string    `json:"background" yaml:"background"`                 // Background image reference
	Style      string    `json:"style,omitempty" yaml:"style,omitempty"`       // Visual style, e.g. "pink-style"
	Script     []Step    `json:"script" yaml:"script"`                         // Ordered dialogue script
	Hotspots   []Hotspot `json:"hotspots,omitempty" yaml:"hotspots,omitempty"` // Clickable objects
}

// Step is one unit of sequential narrative content.
//
// Narration uses Text, Line uses Speaker and Text, and a choice point uses Choices.
type Step struct {
	Type    StepType `json:"type" yaml:"type"`
	Speaker string   `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// IsChoicePoint reports whether the step suspends sequencing for a decision.
func (s Step) IsChoicePoint() bool {
	return s.Type == StepChoice
}

// Narration builds a narration step.
func Narration(text string) Step {
	return Step{Type: StepNarration, Text: text}
}

// Line builds a spoken line.
func Line(speaker, text string) Step {
	return Step{Type: StepLine, Speaker: speaker, Text: text}
}

// ChoicePoint builds a choice step.
func ChoicePoint(choices ...Choice) Step {
	return Step{Type: StepChoice, Choices: choices}
}

// Choice is one option presented at a choice point.
type Choice struct {
	ID        string                  `json:"id" yaml:"id"`
	Text      string                  `json:"text" yaml:"text"`
	Condition *conditionals.Predicate `json:"condition,omitempty" yaml:"condition,omitempty"` // nil means always visible
	Action    *Action                 `json:"action,omitempty" yaml:"action,omitempty"`
	Followup  []Step                  `json:"followup,omitempty" yaml:"followup,omitempty"` // Played before the rest of the queue
}
