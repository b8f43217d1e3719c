package scenario

import "fmt"

// ActionType tags the Action variant.
type ActionType string

const (
	ActionSetBranchAndEnd ActionType = "set_branch_and_end"
	ActionAdjustSuspicion ActionType = "adjust_suspicion"
	ActionChangeStyle     ActionType = "change_style"
	ActionGotoScene       ActionType = "goto_scene"
	ActionGotoEnding      ActionType = "goto_ending"
)

// Action is the effect of selecting a choice. Only the fields relevant to
// Type are read.
type Action struct {
	Type          ActionType `json:"type" yaml:"type"`
	Branch        string     `json:"branch,omitempty" yaml:"branch,omitempty"`                 // set_branch_and_end
	Ending        string     `json:"ending,omitempty" yaml:"ending,omitempty"`                 // set_branch_and_end, goto_ending
	Delta         int        `json:"delta,omitempty" yaml:"delta,omitempty"`                   // adjust_suspicion
	UnlocksHidden bool       `json:"unlocks_hidden,omitempty" yaml:"unlocks_hidden,omitempty"` // adjust_suspicion
	Style         string     `json:"style,omitempty" yaml:"style,omitempty"`                   // change_style
	Scene         string     `json:"scene,omitempty" yaml:"scene,omitempty"`                   // goto_scene
}

// IsTerminal reports whether the action ends the session.
func (a Action) IsTerminal() bool {
	return a.Type == ActionSetBranchAndEnd || a.Type == ActionGotoEnding
}

// validateShape checks required fields per action type. References to
// scenes and endings are checked against the catalog in Validate.
func (a Action) validateShape() error {
	switch a.Type {
	case ActionSetBranchAndEnd:
		if a.Branch == "" {
			return fmt.Errorf("set_branch_and_end requires a branch")
		}
		if a.Ending == "" {
			return fmt.Errorf("set_branch_and_end requires an ending")
		}
	case ActionAdjustSuspicion:
	case ActionChangeStyle:
		if a.Style == "" {
			return fmt.Errorf("change_style requires a style")
		}
	case ActionGotoScene:
		if a.Scene == "" {
			return fmt.Errorf("goto_scene requires a scene")
		}
	case ActionGotoEnding:
		if a.Ending == "" {
			return fmt.Errorf("goto_ending requires an ending")
		}
	case "":
		return fmt.Errorf("action type is required")
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}
