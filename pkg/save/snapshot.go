// Package save defines the persisted form of a playthrough.
//
// A snapshot is an opaque blob to the storage layer. Only this package knows
// how to encode it and how to decide whether a blob is structurally sound.
package save

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/state"
)

// Version is the snapshot format written by this build. Other versions are
// rejected rather than migrated.
const Version = 1

// Snapshot is everything needed to resume a playthrough.
type Snapshot struct {
	Version int                   `json:"version"`
	SavedAt time.Time             `json:"saved_at"`
	State   *state.NarrativeState `json:"narrative_state"`
	SceneID string                `json:"current_scene_id"`
	Pending []scenario.Step       `json:"pending_steps"`
	Current *scenario.Step        `json:"current_step,omitempty"` // Step on screen when saved
}

// CorruptSaveError reports a blob that failed structural validation.
type CorruptSaveError struct {
	Err error
}

func (e *CorruptSaveError) Error() string {
	return "corrupt save: " + e.Err.Error()
}

func (e *CorruptSaveError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is or wraps a CorruptSaveError.
func IsCorrupt(err error) bool {
	var ce *CorruptSaveError
	return errors.As(err, &ce)
}

// Encode serializes a snapshot, stamping the current version.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("failed to encode snapshot: snapshot is nil")
	}
	s.Version = Version
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	if s.Pending == nil {
		s.Pending = make([]scenario.Step, 0)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a blob against the catalog it will be loaded
// into. Every failure is a *CorruptSaveError.
func Decode(blob []byte, catalog *scenario.Scenario) (*Snapshot, error) {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil, &CorruptSaveError{Err: errors.New("save data is empty")}
	}

	decoder := json.NewDecoder(bytes.NewReader(blob))
	decoder.DisallowUnknownFields()

	var s Snapshot
	if err := decoder.Decode(&s); err != nil {
		return nil, &CorruptSaveError{Err: fmt.Errorf("failed to unmarshal snapshot: %w", err)}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &CorruptSaveError{Err: errors.New("unexpected data after snapshot")}
	}
	if err := s.Validate(catalog); err != nil {
		return nil, &CorruptSaveError{Err: err}
	}
	if s.Pending == nil {
		s.Pending = make([]scenario.Step, 0)
	}
	return &s, nil
}

// Validate checks the snapshot's structure and that its scene and steps
// resolve in catalog.
func (s *Snapshot) Validate(catalog *scenario.Scenario) error {
	if s.Version != Version {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if err := s.State.Validate(); err != nil {
		return err
	}
	if catalog == nil {
		return errors.New("no catalog to validate against")
	}
	if s.SceneID == "" {
		return errors.New("current_scene_id is required")
	}
	if _, ok := catalog.GetScene(s.SceneID); !ok {
		return fmt.Errorf("current_scene_id %q is not in the catalog", s.SceneID)
	}
	if err := catalog.ValidateSteps(s.Pending); err != nil {
		return fmt.Errorf("invalid pending steps: %w", err)
	}
	if s.Current != nil {
		if err := catalog.ValidateSteps([]scenario.Step{*s.Current}); err != nil {
			return fmt.Errorf("invalid current step: %w", err)
		}
	}
	return nil
}
