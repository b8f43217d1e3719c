package conditionals

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PredicateType identifies which check a Predicate performs.
type PredicateType string

const (
	PredicateHiddenUnlocked   PredicateType = "hidden_unlocked"    // hidden branch has been unlocked
	PredicateSuspicionAtLeast PredicateType = "suspicion_at_least" // suspicion level >= threshold
)

// Predicate is a side-effect free check against narrative state.
// It gates the visibility of a choice.
type Predicate struct {
	Type      PredicateType `json:"type" yaml:"type"`
	Threshold int           `json:"threshold,omitempty" yaml:"threshold,omitempty"` // Used by suspicion_at_least
}

// UnmarshalJSON accepts either an object or the bare predicate type as a string
// ("hidden_unlocked" is shorthand for {"type":"hidden_unlocked"}).
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		p.Type = PredicateType(str)
		p.Threshold = 0
		return nil
	}

	type Alias Predicate
	aux := &struct{ *Alias }{Alias: (*Alias)(p)}
	return json.Unmarshal(data, aux)
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML catalogs.
func (p *Predicate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Type = PredicateType(node.Value)
		p.Threshold = 0
		return nil
	}

	type Alias Predicate
	var aux Alias
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*p = Predicate(aux)
	return nil
}

// Validate reports whether the predicate is one the evaluator understands.
func (p Predicate) Validate() error {
	switch p.Type {
	case PredicateHiddenUnlocked, PredicateSuspicionAtLeast:
		return nil
	case "":
		return fmt.Errorf("predicate type is required")
	default:
		return fmt.Errorf("unknown predicate type %q", p.Type)
	}
}

// StateView provides the minimal interface needed to evaluate predicates.
// This avoids an import cycle with the state package.
type StateView interface {
	IsHiddenUnlocked() bool
	GetSuspicionLevel() int
}

// Evaluate checks a predicate against the given state. A nil predicate is
// always satisfied. Unknown predicate types are never satisfied. A nil view
// fails every predicate; a typed nil is passed through, so its getters must
// handle a nil receiver.
func Evaluate(p *Predicate, view StateView) bool {
	if p == nil {
		return true
	}
	if view == nil {
		return false
	}

	switch p.Type {
	case PredicateHiddenUnlocked:
		return view.IsHiddenUnlocked()
	case PredicateSuspicionAtLeast:
		return view.GetSuspicionLevel() >= p.Threshold
	default:
		return false
	}
}
