package scenario

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var (
	validIDRegex     = regexp.MustCompile(`^[a-z][a-z0-9_-]*[a-z0-9]$|^[a-z]$`)
	validEndingRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

// IsValidID reports whether id is lowercase kebab or snake case.
func IsValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

// validator accumulates every authoring error rather than stopping at the first.
type validator struct {
	s      *Scenario
	errors []error
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Errorf(format, args...))
}

// Validate checks the catalog for authoring errors: malformed ids, unknown
// variants, and references to scenes or endings that do not exist.
// All problems are reported together.
func (s *Scenario) Validate() error {
	v := &validator{s: s}

	if len(s.Scenes) == 0 {
		v.addError("scenario has no scenes")
	}
	if s.OpeningScene == "" {
		v.addError("opening_scene is required")
	} else if _, ok := s.Scenes[s.OpeningScene]; !ok {
		v.addError("opening_scene %q does not exist", s.OpeningScene)
	}

	if len(s.Endings) == 0 {
		v.addError("scenario has no endings")
	}
	for _, endingID := range sortedKeys(s.Endings) {
		if !validEndingRegex.MatchString(endingID) {
			v.addError("ending id %q is malformed", endingID)
		}
	}
	if s.DefaultEnding == "" {
		v.addError("default_ending is required")
	} else if _, ok := s.Endings[s.DefaultEnding]; !ok {
		v.addError("default_ending %q does not exist", s.DefaultEnding)
	}

	// Sorted so error output is stable between runs
	for _, sceneID := range sortedKeys(s.Scenes) {
		if !IsValidID(sceneID) {
			v.addError("scene id %q should be lowercase kebab or snake case", sceneID)
		}
		sc := s.Scenes[sceneID]
		v.validateScene(sceneID, &sc)
	}

	return errors.Join(v.errors...)
}

// ValidateSteps checks steps that originate outside the catalog, such as a
// restored pending queue, against the catalog's scenes and endings.
func (s *Scenario) ValidateSteps(steps []Step) error {
	v := &validator{s: s}
	v.validateSteps("pending", steps)
	return errors.Join(v.errors...)
}

func (v *validator) validateScene(sceneID string, sc *Scene) {
	if len(sc.Script) == 0 {
		v.addError("scene %s: script is empty", sceneID)
	}
	v.validateSteps(fmt.Sprintf("scene %s", sceneID), sc.Script)

	seen := make(map[string]bool)
	for i, h := range sc.Hotspots {
		where := fmt.Sprintf("scene %s hotspot %d", sceneID, i)
		if h.ID == "" {
			v.addError("%s: id is required", where)
		} else if !IsValidID(h.ID) {
			v.addError("%s: id %q should be lowercase kebab or snake case", where, h.ID)
		} else if seen[h.ID] {
			v.addError("%s: duplicate hotspot id %q", where, h.ID)
		}
		seen[h.ID] = true

		switch h.Effect {
		case EffectWitheredPetal, EffectNormalPetal, EffectCollectPetal:
		default:
			v.addError("%s: unknown effect %q", where, h.Effect)
		}
	}
}

func (v *validator) validateSteps(where string, steps []Step) {
	for i, step := range steps {
		stepWhere := fmt.Sprintf("%s step %d", where, i)
		switch step.Type {
		case StepNarration:
			if step.Text == "" {
				v.addError("%s: narration text is empty", stepWhere)
			}
		case StepLine:
			if step.Speaker == "" {
				v.addError("%s: line has no speaker", stepWhere)
			}
			if step.Text == "" {
				v.addError("%s: line text is empty", stepWhere)
			}
		case StepChoice:
			v.validateChoices(stepWhere, step.Choices)
		default:
			v.addError("%s: unknown step type %q", stepWhere, step.Type)
		}
	}
}

func (v *validator) validateChoices(where string, choices []Choice) {
	if len(choices) == 0 {
		v.addError("%s: choice point has no choices", where)
	}

	seen := make(map[string]bool)
	for _, c := range choices {
		choiceWhere := fmt.Sprintf("%s choice %q", where, c.ID)
		if c.ID == "" {
			v.addError("%s: choice id is required", where)
		} else if !IsValidID(c.ID) {
			v.addError("%s: id should be lowercase kebab or snake case", choiceWhere)
		} else if seen[c.ID] {
			v.addError("%s: duplicate choice id", choiceWhere)
		}
		seen[c.ID] = true

		if c.Text == "" {
			v.addError("%s: text is empty", choiceWhere)
		}
		if c.Condition != nil {
			if err := c.Condition.Validate(); err != nil {
				v.addError("%s: %v", choiceWhere, err)
			}
		}
		if c.Action != nil {
			v.validateAction(choiceWhere, c.Action)
		}
		v.validateSteps(choiceWhere+" followup", c.Followup)
	}
}

func (v *validator) validateAction(where string, a *Action) {
	if err := a.validateShape(); err != nil {
		v.addError("%s: %v", where, err)
		return
	}

	switch a.Type {
	case ActionGotoScene:
		if _, ok := v.s.Scenes[a.Scene]; !ok {
			v.addError("%s: goto_scene references unknown scene %q", where, a.Scene)
		}
	case ActionGotoEnding, ActionSetBranchAndEnd:
		if _, ok := v.s.Endings[a.Ending]; !ok {
			v.addError("%s: references unknown ending %q", where, a.Ending)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
