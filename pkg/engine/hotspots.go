package engine

import (
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

const (
	// UnlockMessage is shown when withered petals unlock the hidden branch.
	UnlockMessage = "Something about this place feels wrong..."
	// DefaultPetalMessage is shown for a normal petal that has no message of its own.
	DefaultPetalMessage = "Where do these petals come from?"
)

// TriggerHotspot applies a hotspot's effect. A hotspot fires at most once per
// scene visit; triggering a consumed one does nothing.
func (e *Engine) TriggerHotspot(hotspotID string) error {
	switch e.phase {
	case PhaseIdle:
		return ErrNoScene
	case PhaseEnded:
		return ErrSessionEnded
	case PhaseLoading:
		return ErrSceneLoading
	}

	h, ok := e.findHotspot(hotspotID)
	if !ok {
		return ErrUnknownHotspot
	}
	if e.consumed[hotspotID] {
		e.logger.Debug("Hotspot already consumed", "hotspot", hotspotID)
		return nil
	}
	e.consumed[hotspotID] = true

	switch h.Effect {
	case scenario.EffectWitheredPetal:
		crossed := e.state.RecordWitheredPetal()
		e.present.NotifyCounters(e.state.WitheredCount, e.state.SuspicionLevel)
		if crossed {
			e.logger.Info("Hidden branch unlocked by withered petals",
				"withered_count", e.state.WitheredCount)
			e.present.PlayEffect(EffectFlicker)
			e.present.ShowMessage(UnlockMessage)
		} else if h.Message != "" {
			e.present.ShowMessage(h.Message)
		}

	case scenario.EffectCollectPetal:
		item := h.CollectedItem()
		e.state.AddItem(item)
		msg := h.Message
		if msg == "" {
			msg = "Obtained " + item
		}
		e.present.ShowMessage(msg)

	default:
		msg := h.Message
		if msg == "" {
			msg = DefaultPetalMessage
		}
		e.present.ShowMessage(msg)
	}

	e.present.RenderHotspots(e.VisibleHotspots())
	return nil
}

// VisibleHotspots returns the active scene's hotspots that have not been
// triggered during this visit.
func (e *Engine) VisibleHotspots() []scenario.Hotspot {
	out := make([]scenario.Hotspot, 0)
	if e.scene == nil {
		return out
	}
	for _, h := range e.scene.Hotspots {
		if !e.consumed[h.ID] {
			out = append(out, h)
		}
	}
	return out
}

func (e *Engine) findHotspot(hotspotID string) (scenario.Hotspot, bool) {
	if e.scene == nil {
		return scenario.Hotspot{}, false
	}
	for _, h := range e.scene.Hotspots {
		if h.ID == hotspotID {
			return h, true
		}
	}
	return scenario.Hotspot{}, false
}
