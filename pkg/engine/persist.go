package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jwebster45206/blossom-engine/pkg/save"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

// Save serializes the playthrough so it resumes at the step on screen.
func (e *Engine) Save() ([]byte, error) {
	switch e.phase {
	case PhaseIdle:
		return nil, ErrNoScene
	case PhaseEnded:
		return nil, ErrSessionEnded
	}

	snap := &save.Snapshot{
		State:   e.state.Clone(),
		SceneID: e.sceneID,
		Pending: e.seq.Pending(),
		Current: e.screenStep(),
	}
	blob, err := save.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	e.logger.Debug("Session saved", "scene", e.sceneID, "pending", len(snap.Pending))
	return blob, nil
}

// screenStep is the step a restored session should show first.
func (e *Engine) screenStep() *scenario.Step {
	if e.phase == PhaseLoading && e.resumeCurrent != nil {
		s := *e.resumeCurrent
		return &s
	}
	if e.current == nil || e.phase == PhaseLoading {
		return nil
	}
	s := *e.current
	return &s
}

// Load restores a saved playthrough. The blob is fully decoded and validated
// before anything changes, so a *save.CorruptSaveError leaves the session
// exactly as it was.
//
// The restored scene goes through a normal transition; on SceneReady the
// saved step is shown again and the saved queue continues from there.
// Loading does not count as a scene visit.
func (e *Engine) Load(blob []byte) error {
	snap, err := save.Decode(blob, e.catalog)
	if err != nil {
		e.logger.Warn("Rejected save data", "error", err)
		return err
	}
	sc, _ := e.catalog.GetScene(snap.SceneID)

	e.state = snap.State
	e.sceneID = snap.SceneID
	e.scene = sc
	e.seq.Load(snap.Pending)
	e.current = nil
	e.visible = nil
	e.resumeCurrent = snap.Current
	e.consumed = make(map[string]bool)
	e.endingID = ""
	e.phase = PhaseLoading

	e.logger.Info("Session loaded", "scene", snap.SceneID, "saved_at", snap.SavedAt)
	e.present.HideDialogue()
	e.present.NotifyCounters(e.state.WitheredCount, e.state.SuspicionLevel)
	e.present.TransitionToScene(sc.Background, sc.Style)
	return nil
}

// Checkpoint is the complete engine position, including what a save file
// leaves out: the phase, the hotspots consumed during this visit, and the
// ending. It lets a stateless server rebuild an engine between requests.
type Checkpoint struct {
	Snapshot save.Snapshot `json:"snapshot"`
	Phase    Phase         `json:"phase"`
	Consumed []string      `json:"consumed_hotspots"`
	EndingID string        `json:"ending_id,omitempty"`
}

// MarshalCheckpoint encodes the engine position.
func (e *Engine) MarshalCheckpoint() ([]byte, error) {
	cp := Checkpoint{
		Snapshot: save.Snapshot{
			Version: save.Version,
			State:   e.state.Clone(),
			SceneID: e.sceneID,
			Pending: e.seq.Pending(),
		},
		Phase:    e.phase,
		Consumed: make([]string, 0, len(e.consumed)),
		EndingID: e.endingID,
	}
	switch {
	case e.phase == PhaseLoading && e.resumeCurrent != nil:
		s := *e.resumeCurrent
		cp.Snapshot.Current = &s
	case e.current != nil:
		s := *e.current
		cp.Snapshot.Current = &s
	}
	for id := range e.consumed {
		cp.Consumed = append(cp.Consumed, id)
	}
	slices.Sort(cp.Consumed)

	data, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return data, nil
}

// Resume restores an engine position written by MarshalCheckpoint without
// emitting anything to the presentation.
func (e *Engine) Resume(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var cp Checkpoint
	if err := decoder.Decode(&cp); err != nil {
		return fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	if cp.Phase == PhaseIdle {
		*e = *New(e.catalog, e.present, e.logger)
		return nil
	}
	if err := cp.Snapshot.Validate(e.catalog); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	switch cp.Phase {
	case PhaseLoading, PhaseDialogue, PhaseChoosing, PhaseExhausted, PhaseEnded:
	default:
		return fmt.Errorf("invalid checkpoint: unknown phase %q", cp.Phase)
	}
	if (cp.Phase == PhaseDialogue || cp.Phase == PhaseChoosing) && cp.Snapshot.Current == nil {
		return fmt.Errorf("invalid checkpoint: phase %s requires a current step", cp.Phase)
	}
	if cp.Phase == PhaseChoosing && !cp.Snapshot.Current.IsChoicePoint() {
		return fmt.Errorf("invalid checkpoint: phase %s requires a choice point", cp.Phase)
	}

	sc, _ := e.catalog.GetScene(cp.Snapshot.SceneID)
	e.state = cp.Snapshot.State
	e.sceneID = cp.Snapshot.SceneID
	e.scene = sc
	e.seq.Load(cp.Snapshot.Pending)
	e.phase = cp.Phase
	e.endingID = cp.EndingID
	e.current = nil
	e.visible = nil
	e.resumeCurrent = nil

	e.consumed = make(map[string]bool, len(cp.Consumed))
	for _, id := range cp.Consumed {
		e.consumed[id] = true
	}

	switch cp.Phase {
	case PhaseLoading:
		e.resumeCurrent = cp.Snapshot.Current
	case PhaseDialogue, PhaseChoosing:
		e.current = cp.Snapshot.Current
		if cp.Phase == PhaseChoosing {
			e.visible = VisibleChoices(e.current.Choices, e.state)
		}
	}
	return nil
}
