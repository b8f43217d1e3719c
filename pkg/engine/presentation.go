package engine

import (
	"sync"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

// EffectFlicker is played once when the hidden branch is unlocked by withered petals.
const EffectFlicker = "flicker"

// Presentation receives render instructions from the engine. Implementations
// decide how, and how slowly, anything is shown; the engine never waits on them.
type Presentation interface {
	RenderNarration(text string)
	RenderLine(speaker, text string)
	RenderChoices(choices []scenario.Choice)
	RenderHotspots(hotspots []scenario.Hotspot)
	HideDialogue()
	NotifyCounters(witheredCount, suspicionLevel int)
	PlayEffect(effectID string)
	ShowMessage(text string)
	ApplyStyle(style string)
	// TransitionToScene starts a scene change. The engine waits for a
	// SceneReady event before rendering the new scene's content.
	TransitionToScene(background, style string)
	TransitionToEnding(endingID string, ending scenario.Ending)
}

// NopPresentation discards everything.
type NopPresentation struct{}

var _ Presentation = NopPresentation{}

func (NopPresentation) RenderNarration(string)                     {}
func (NopPresentation) RenderLine(string, string)                  {}
func (NopPresentation) RenderChoices([]scenario.Choice)            {}
func (NopPresentation) RenderHotspots([]scenario.Hotspot)          {}
func (NopPresentation) HideDialogue()                              {}
func (NopPresentation) NotifyCounters(int, int)                    {}
func (NopPresentation) PlayEffect(string)                          {}
func (NopPresentation) ShowMessage(string)                         {}
func (NopPresentation) ApplyStyle(string)                          {}
func (NopPresentation) TransitionToScene(string, string)           {}
func (NopPresentation) TransitionToEnding(string, scenario.Ending) {}

// Tee forwards every call to each presentation in order.
type Tee []Presentation

var _ Presentation = Tee(nil)

func (t Tee) RenderNarration(text string) {
	for _, p := range t {
		p.RenderNarration(text)
	}
}

func (t Tee) RenderLine(speaker, text string) {
	for _, p := range t {
		p.RenderLine(speaker, text)
	}
}

func (t Tee) RenderChoices(choices []scenario.Choice) {
	for _, p := range t {
		p.RenderChoices(choices)
	}
}

func (t Tee) RenderHotspots(hotspots []scenario.Hotspot) {
	for _, p := range t {
		p.RenderHotspots(hotspots)
	}
}

func (t Tee) HideDialogue() {
	for _, p := range t {
		p.HideDialogue()
	}
}

func (t Tee) NotifyCounters(witheredCount, suspicionLevel int) {
	for _, p := range t {
		p.NotifyCounters(witheredCount, suspicionLevel)
	}
}

func (t Tee) PlayEffect(effectID string) {
	for _, p := range t {
		p.PlayEffect(effectID)
	}
}

func (t Tee) ShowMessage(text string) {
	for _, p := range t {
		p.ShowMessage(text)
	}
}

func (t Tee) ApplyStyle(style string) {
	for _, p := range t {
		p.ApplyStyle(style)
	}
}

func (t Tee) TransitionToScene(background, style string) {
	for _, p := range t {
		p.TransitionToScene(background, style)
	}
}

func (t Tee) TransitionToEnding(endingID string, ending scenario.Ending) {
	for _, p := range t {
		p.TransitionToEnding(endingID, ending)
	}
}

// FrameKind tags a recorded presentation call.
type FrameKind string

const (
	FrameNarration    FrameKind = "narration"
	FrameLine         FrameKind = "line"
	FrameChoices      FrameKind = "choices"
	FrameHotspots     FrameKind = "hotspots"
	FrameHideDialogue FrameKind = "hide_dialogue"
	FrameCounters     FrameKind = "counters"
	FrameEffect       FrameKind = "effect"
	FrameMessage      FrameKind = "message"
	FrameStyle        FrameKind = "style"
	FrameScene        FrameKind = "scene"
	FrameEnding       FrameKind = "ending"
)

// ChoiceView is the client-facing part of a choice. Conditions and actions
// stay on the server.
type ChoiceView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// HotspotView is the client-facing part of a hotspot.
type HotspotView struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Icon    string `json:"icon,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Frame is one presentation call in wire form.
type Frame struct {
	Kind       FrameKind        `json:"kind"`
	Speaker    string           `json:"speaker,omitempty"`
	Text       string           `json:"text,omitempty"`
	Choices    []ChoiceView     `json:"choices,omitempty"`
	Hotspots   []HotspotView    `json:"hotspots,omitempty"`
	Withered   *int             `json:"withered_count,omitempty"`
	Suspicion  *int             `json:"suspicion_level,omitempty"`
	Effect     string           `json:"effect,omitempty"`
	Background string           `json:"background,omitempty"`
	Style      string           `json:"style,omitempty"`
	EndingID   string           `json:"ending_id,omitempty"`
	Ending     *scenario.Ending `json:"ending,omitempty"`
}

// Recorder captures presentation calls as frames so they can be replayed by
// a remote client.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
}

var _ Presentation = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{frames: make([]Frame, 0)}
}

// Frames returns the recorded frames in call order.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Kinds returns the kind of each recorded frame.
func (r *Recorder) Kinds() []FrameKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]FrameKind, len(r.frames))
	for i, f := range r.frames {
		kinds[i] = f.Kind
	}
	return kinds
}

// Reset drops all recorded frames.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = make([]Frame, 0)
}

func (r *Recorder) add(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *Recorder) RenderNarration(text string) {
	r.add(Frame{Kind: FrameNarration, Text: text})
}

func (r *Recorder) RenderLine(speaker, text string) {
	r.add(Frame{Kind: FrameLine, Speaker: speaker, Text: text})
}

func (r *Recorder) RenderChoices(choices []scenario.Choice) {
	views := make([]ChoiceView, 0, len(choices))
	for _, c := range choices {
		views = append(views, ChoiceView{ID: c.ID, Text: c.Text})
	}
	r.add(Frame{Kind: FrameChoices, Choices: views})
}

func (r *Recorder) RenderHotspots(hotspots []scenario.Hotspot) {
	views := make([]HotspotView, 0, len(hotspots))
	for _, h := range hotspots {
		views = append(views, HotspotView{
			ID:      h.ID,
			X:       h.X,
			Y:       h.Y,
			Width:   h.Width,
			Height:  h.Height,
			Icon:    h.Icon,
			Tooltip: h.Tooltip,
		})
	}
	r.add(Frame{Kind: FrameHotspots, Hotspots: views})
}

func (r *Recorder) HideDialogue() {
	r.add(Frame{Kind: FrameHideDialogue})
}

func (r *Recorder) NotifyCounters(witheredCount, suspicionLevel int) {
	r.add(Frame{Kind: FrameCounters, Withered: &witheredCount, Suspicion: &suspicionLevel})
}

func (r *Recorder) PlayEffect(effectID string) {
	r.add(Frame{Kind: FrameEffect, Effect: effectID})
}

func (r *Recorder) ShowMessage(text string) {
	r.add(Frame{Kind: FrameMessage, Text: text})
}

func (r *Recorder) ApplyStyle(style string) {
	r.add(Frame{Kind: FrameStyle, Style: style})
}

func (r *Recorder) TransitionToScene(background, style string) {
	r.add(Frame{Kind: FrameScene, Background: background, Style: style})
}

func (r *Recorder) TransitionToEnding(endingID string, ending scenario.Ending) {
	r.add(Frame{Kind: FrameEnding, EndingID: endingID, Ending: &ending})
}
