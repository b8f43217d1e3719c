package engine

import (
	"github.com/jwebster45206/blossom-engine/pkg/conditionals"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

// VisibleChoices returns the choices whose conditions hold for view, in
// declaration order. Choices without a condition are always visible. The
// result depends only on its arguments.
func VisibleChoices(choices []scenario.Choice, view conditionals.StateView) []scenario.Choice {
	visible := make([]scenario.Choice, 0, len(choices))
	for _, c := range choices {
		if conditionals.Evaluate(c.Condition, view) {
			visible = append(visible, c)
		}
	}
	return visible
}

func findChoice(choices []scenario.Choice, id string) (scenario.Choice, bool) {
	for _, c := range choices {
		if c.ID == id {
			return c, true
		}
	}
	return scenario.Choice{}, false
}
