// Package engine drives a playthrough: it sequences dialogue, filters and
// applies choices, handles hotspots and scene transitions, and tells a
// Presentation what to show. It owns the NarrativeState of one session.
//
// An Engine is not safe for concurrent use. Callers serialize events.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/state"
)

// Phase is the engine's position in the session lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"      // no game started
	PhaseLoading   Phase = "loading"   // waiting for SceneReady
	PhaseDialogue  Phase = "dialogue"  // a narration or line is on screen
	PhaseChoosing  Phase = "choosing"  // waiting for a choice
	PhaseExhausted Phase = "exhausted" // the scene's script has run out
	PhaseEnded     Phase = "ended"
)

// Event is an input to Dispatch.
type Event interface {
	isEvent()
}

type (
	NewGame          struct{}
	Advance          struct{}
	SceneReady       struct{}
	ChoiceSelected   struct{ ChoiceID string }
	HotspotTriggered struct{ HotspotID string }
	LoadRequested    struct{ Blob []byte }
)

func (NewGame) isEvent()          {}
func (Advance) isEvent()          {}
func (SceneReady) isEvent()       {}
func (ChoiceSelected) isEvent()   {}
func (HotspotTriggered) isEvent() {}
func (LoadRequested) isEvent()    {}

type Engine struct {
	catalog *scenario.Scenario
	present Presentation
	logger  *slog.Logger

	state   *state.NarrativeState
	sceneID string
	scene   *scenario.Scene
	seq     *Sequencer
	phase   Phase

	current       *scenario.Step    // step on screen
	visible       []scenario.Choice // choices offered at the current choice point
	resumeCurrent *scenario.Step    // restored step to show on SceneReady instead of advancing
	consumed      map[string]bool   // hotspots triggered during this scene visit
	endingID      string
}

// New creates an idle engine over a validated catalog. A nil presentation
// discards output and a nil logger uses slog.Default.
func New(catalog *scenario.Scenario, present Presentation, logger *slog.Logger) *Engine {
	if present == nil {
		present = NopPresentation{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:  catalog,
		present:  present,
		logger:   logger,
		state:    state.NewNarrativeState(),
		seq:      NewSequencer(),
		phase:    PhaseIdle,
		consumed: make(map[string]bool),
	}
}

// Dispatch routes an event to its handler.
func (e *Engine) Dispatch(ev Event) error {
	switch ev := ev.(type) {
	case NewGame:
		return e.StartNewGame()
	case Advance:
		return e.Advance()
	case SceneReady:
		return e.SceneReady()
	case ChoiceSelected:
		return e.SelectChoice(ev.ChoiceID)
	case HotspotTriggered:
		return e.TriggerHotspot(ev.HotspotID)
	case LoadRequested:
		return e.Load(ev.Blob)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

// StartNewGame resets narrative state and enters the opening scene.
func (e *Engine) StartNewGame() error {
	e.state = state.NewNarrativeState()
	e.endingID = ""
	e.seq.Clear()
	e.current = nil
	e.visible = nil
	e.resumeCurrent = nil

	e.logger.Info("Starting new game", "scenario", e.catalog.Name, "scene", e.catalog.OpeningScene)
	e.present.NotifyCounters(e.state.WitheredCount, e.state.SuspicionLevel)
	return e.enterScene(e.catalog.OpeningScene)
}

// enterScene makes sceneID the active scene and starts its transition. The
// scene id is checked before anything changes.
func (e *Engine) enterScene(sceneID string) error {
	sc, ok := e.catalog.GetScene(sceneID)
	if !ok {
		e.logger.Error("Scene transition aborted", "scene", sceneID, "current", e.sceneID)
		return &UnknownSceneError{SceneID: sceneID}
	}

	e.state.RecordVisit(sceneID)
	e.sceneID = sceneID
	e.scene = sc
	e.seq.Load(sc.Script)
	e.current = nil
	e.visible = nil
	e.resumeCurrent = nil
	e.consumed = make(map[string]bool)
	e.phase = PhaseLoading

	e.logger.Debug("Entering scene", "scene", sceneID, "steps", len(sc.Script))
	e.present.HideDialogue()
	e.present.TransitionToScene(sc.Background, sc.Style)
	return nil
}

// SceneReady completes a transition: hotspots are shown and the first step
// (or the restored step after a load) is rendered. Outside a transition it
// does nothing.
func (e *Engine) SceneReady() error {
	if e.phase != PhaseLoading {
		return nil
	}

	e.present.RenderHotspots(e.VisibleHotspots())

	if e.resumeCurrent != nil {
		step := *e.resumeCurrent
		e.resumeCurrent = nil
		e.show(step)
		return nil
	}

	e.phase = PhaseDialogue
	return e.Advance()
}

// Advance shows the next pending step. It does nothing while a choice is
// pending or a scene is loading. When the queue is exhausted the dialogue
// box is hidden and hotspots stay interactive.
func (e *Engine) Advance() error {
	switch e.phase {
	case PhaseIdle:
		return ErrNoScene
	case PhaseEnded:
		return ErrSessionEnded
	case PhaseLoading, PhaseChoosing:
		return nil
	}

	step, ok := e.seq.Pop()
	if !ok {
		if e.phase != PhaseExhausted {
			e.logger.Debug("Script exhausted", "scene", e.sceneID)
		}
		e.current = nil
		e.phase = PhaseExhausted
		e.present.HideDialogue()
		return nil
	}

	e.show(step)
	return nil
}

func (e *Engine) show(step scenario.Step) {
	e.current = &step

	switch step.Type {
	case scenario.StepLine:
		e.phase = PhaseDialogue
		e.present.RenderLine(step.Speaker, step.Text)
	case scenario.StepChoice:
		e.visible = VisibleChoices(step.Choices, e.state)
		e.phase = PhaseChoosing
		if len(e.visible) == 0 {
			e.logger.Warn("Choice point has no visible choices", "scene", e.sceneID)
		}
		e.present.RenderChoices(e.visible)
	default:
		e.phase = PhaseDialogue
		e.present.RenderNarration(step.Text)
	}
}

// SelectChoice applies the chosen option: it is recorded, its action runs,
// its followup steps are queued ahead of the rest of the scene, and the
// sequence advances. A terminal action ends the session immediately.
//
// If the action names an unknown scene the transition is aborted, the
// followups still play in the current scene, and the UnknownSceneError is
// returned.
func (e *Engine) SelectChoice(choiceID string) error {
	switch e.phase {
	case PhaseIdle:
		return ErrNoScene
	case PhaseEnded:
		return ErrSessionEnded
	case PhaseChoosing:
	default:
		return ErrNotChoosing
	}

	c, ok := findChoice(e.visible, choiceID)
	if !ok {
		return ErrUnknownChoice
	}

	e.state.RecordChoice(c.ID)
	e.visible = nil
	e.current = nil
	e.phase = PhaseDialogue
	e.logger.Debug("Choice selected", "choice", c.ID, "scene", e.sceneID)

	var actionErr error
	if c.Action != nil {
		actionErr = e.execute(*c.Action)
		if c.Action.IsTerminal() {
			return actionErr
		}
	}

	e.seq.Prepend(c.Followup)
	if e.phase == PhaseLoading {
		return actionErr
	}
	if err := e.Advance(); err != nil {
		return err
	}
	return actionErr
}

// Refresh re-sends the current view to the presentation without changing
// any state. Used when a new client attaches to an existing session.
func (e *Engine) Refresh() {
	e.present.NotifyCounters(e.state.WitheredCount, e.state.SuspicionLevel)

	switch e.phase {
	case PhaseIdle:
		return
	case PhaseEnded:
		id, ending, _ := e.catalog.ResolveEnding(e.endingID)
		e.present.TransitionToEnding(id, ending)
		return
	}

	if e.scene != nil {
		e.present.TransitionToScene(e.scene.Background, e.scene.Style)
	}
	if e.phase == PhaseLoading {
		return
	}
	e.present.RenderHotspots(e.VisibleHotspots())

	switch {
	case e.phase == PhaseChoosing:
		e.present.RenderChoices(e.visible)
	case e.current != nil && e.current.Type == scenario.StepLine:
		e.present.RenderLine(e.current.Speaker, e.current.Text)
	case e.current != nil:
		e.present.RenderNarration(e.current.Text)
	default:
		e.present.HideDialogue()
	}
}

func (e *Engine) Phase() Phase { return e.phase }

func (e *Engine) SceneID() string { return e.sceneID }

// EndingID is the resolved ending once the session has ended.
func (e *Engine) EndingID() string { return e.endingID }

func (e *Engine) Catalog() *scenario.Scenario { return e.catalog }

// State returns a copy of the narrative state.
func (e *Engine) State() *state.NarrativeState { return e.state.Clone() }

// Scene returns the active scene, or nil before a game starts.
func (e *Engine) Scene() *scenario.Scene { return e.scene }

// CurrentStep returns the step on screen, if any.
func (e *Engine) CurrentStep() (scenario.Step, bool) {
	if e.current == nil {
		return scenario.Step{}, false
	}
	return *e.current, true
}

// Choices returns the choices currently offered.
func (e *Engine) Choices() []scenario.Choice {
	out := make([]scenario.Choice, len(e.visible))
	copy(out, e.visible)
	return out
}

// PendingSteps reports how many steps remain in the scene queue.
func (e *Engine) PendingSteps() int { return e.seq.Len() }

// Ending returns the resolved ending once the session has ended.
func (e *Engine) Ending() (scenario.Ending, bool) {
	if e.phase != PhaseEnded {
		return scenario.Ending{}, false
	}
	_, ending, _ := e.catalog.ResolveEnding(e.endingID)
	return ending, true
}
