package engine

import (
	"fmt"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/state"
)

// execute applies a single choice action. Scene and ending references are
// resolved here; an unknown scene aborts the transition and leaves the
// current scene in place.
func (e *Engine) execute(a scenario.Action) error {
	switch a.Type {
	case scenario.ActionAdjustSuspicion:
		e.state.AdjustSuspicion(a.Delta, a.UnlocksHidden)
		e.present.NotifyCounters(e.state.WitheredCount, e.state.SuspicionLevel)
		e.logger.Debug("Adjusted suspicion",
			"delta", a.Delta,
			"suspicion_level", e.state.SuspicionLevel,
			"hidden_unlocked", e.state.HiddenBranchUnlocked)
		return nil

	case scenario.ActionSetBranchAndEnd:
		e.state.SetBranch(state.Branch(a.Branch))
		e.endSession(a.Ending)
		return nil

	case scenario.ActionGotoEnding:
		e.endSession(a.Ending)
		return nil

	case scenario.ActionChangeStyle:
		e.present.ApplyStyle(a.Style)
		return nil

	case scenario.ActionGotoScene:
		return e.enterScene(a.Scene)

	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

// endSession routes to an ending. Unrecognized ids fall back to the
// catalog's default ending.
func (e *Engine) endSession(endingID string) {
	resolved, ending, known := e.catalog.ResolveEnding(endingID)
	if !known {
		e.logger.Warn("Unknown ending, falling back to default",
			"requested", endingID,
			"default", resolved)
	}

	e.phase = PhaseEnded
	e.endingID = resolved
	e.seq.Clear()
	e.current = nil
	e.visible = nil
	e.resumeCurrent = nil

	e.logger.Info("Session ended", "ending", resolved, "branch", e.state.CurrentBranch)
	e.present.HideDialogue()
	e.present.TransitionToEnding(resolved, ending)
}
