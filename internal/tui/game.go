package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/blossom-engine/pkg/engine"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
	"github.com/jwebster45206/blossom-engine/pkg/typewriter"
)

func (m Model) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleGameKey(msg)
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

// updateTimers handles timer and storage results, whichever screen is
// showing.
func (m Model) updateTimers(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case revealTickMsg:
		if m.eng == nil || msg.gen != m.stepGen || m.tw == nil || m.tw.Done() {
			return m, nil
		}
		m.tw.Next()
		if m.tw.Done() {
			m.finishReveal()
			return m, nil
		}
		return m, revealTick(m.tw.Interval(), msg.gen)

	case autoAdvanceMsg:
		if m.eng == nil || msg.gen != m.stepGen || !m.settings.AutoMode || m.eng.Phase() != engine.PhaseDialogue {
			return m, nil
		}
		if m.screen != screenGame || m.showQuitModal {
			return m, autoAdvance(m.settings.AutoDelay(""), msg.gen)
		}
		if m.tw != nil && !m.tw.Done() {
			m.finishReveal()
			return m, autoAdvance(m.settings.AutoDelay(""), msg.gen)
		}
		return m, m.dispatch(engine.Advance{})

	case sceneReadyMsg:
		if m.eng == nil || msg.gen != m.sceneGen || !m.loading {
			return m, nil
		}
		m.loading = false
		return m, m.dispatch(engine.SceneReady{})

	case slotSavedMsg:
		if msg.err != nil {
			m.logger.Warn("Quicksave failed", "slot", msg.slot, "error", msg.err)
			m.status = msg.err.Error()
			return m, nil
		}
		return m, m.showMessage("Saved to " + m.displaySlot(msg.slot))

	case clipboardMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Clipboard unavailable: %v", msg.err)
			return m, nil
		}
		return m, m.showMessage("Transcript copied to clipboard")
	}
	return m, nil
}

func (m Model) handleGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.showQuitModal = true
		return m, nil

	case key.Matches(msg, m.keys.Advance):
		return m, m.advance()

	case key.Matches(msg, m.keys.Skip):
		m.settings.SkipMode = !m.settings.SkipMode
		if m.settings.SkipMode && m.tw != nil && !m.tw.Done() {
			m.finishReveal()
		}
		return m, tea.Batch(m.persistSettings(), m.showMessage(modeMessage("Skip", m.settings.SkipMode)))

	case key.Matches(msg, m.keys.Auto):
		m.settings.AutoMode = !m.settings.AutoMode
		cmds := []tea.Cmd{m.persistSettings(), m.showMessage(modeMessage("Auto", m.settings.AutoMode))}
		if m.settings.AutoMode && m.eng.Phase() == engine.PhaseDialogue {
			cmds = append(cmds, autoAdvance(m.settings.AutoDelay(""), m.stepGen))
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Choose):
		n, err := strconv.Atoi(msg.String())
		if err != nil || n < 1 || n > len(m.choices) || m.eng.Phase() != engine.PhaseChoosing {
			return m, nil
		}
		choice := m.choices[n-1]
		m.appendLog(entry{kind: entryChoice, text: choice.Text})
		return m, m.dispatch(engine.ChoiceSelected{ChoiceID: choice.ID})

	case key.Matches(msg, m.keys.NextHotspot):
		if len(m.hotspots) > 0 {
			m.hotspotIdx = (m.hotspotIdx + 1) % len(m.hotspots)
		}
		return m, nil

	case key.Matches(msg, m.keys.Trigger):
		if m.loading || len(m.hotspots) == 0 {
			return m, nil
		}
		return m, m.dispatch(engine.HotspotTriggered{HotspotID: m.hotspots[m.hotspotIdx].ID})

	case key.Matches(msg, m.keys.Save):
		return m, m.quicksave()

	case key.Matches(msg, m.keys.Load):
		return m, m.openSlots()

	case key.Matches(msg, m.keys.Copy):
		return m, copyTranscript(transcriptText(m.transcript))

	case key.Matches(msg, m.keys.Settings):
		m.returnTo = screenGame
		m.settingsIdx = 0
		m.screen = screenSettings
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

func modeMessage(name string, on bool) string {
	if on {
		return name + " mode on"
	}
	return name + " mode off"
}

func (m Model) persistSettings() tea.Cmd {
	if m.opts.Storage == nil {
		return nil
	}
	return saveSettings(m.opts.Storage, m.settings)
}

// advance completes a line still being revealed, or moves the story on.
func (m *Model) advance() tea.Cmd {
	if m.loading {
		return nil
	}
	if m.tw != nil && !m.tw.Done() {
		m.finishReveal()
		return nil
	}
	return m.dispatch(engine.Advance{})
}

func (m *Model) quicksave() tea.Cmd {
	if m.opts.Storage == nil {
		m.status = "Saving is not available in this session"
		return nil
	}
	blob, err := m.eng.Save()
	if err != nil {
		m.status = err.Error()
		return nil
	}
	return saveSlot(m.opts.Storage, m.slotName(storage.DefaultSlot), blob)
}

// dispatch sends one event to the engine and applies what it rendered.
func (m *Model) dispatch(ev engine.Event) tea.Cmd {
	m.status = ""
	err := m.eng.Dispatch(ev)
	cmd := m.drain()
	if err != nil {
		m.logger.Warn("Event rejected", "event", fmt.Sprintf("%T", ev), "error", err)
		m.status = err.Error()
	}
	return cmd
}

func (m *Model) drain() tea.Cmd {
	frames := m.rec.Frames()
	m.rec.Reset()

	cmds := make([]tea.Cmd, 0, len(frames))
	for _, f := range frames {
		cmds = append(cmds, m.apply(f))
	}
	return tea.Batch(cmds...)
}

// apply updates the view for one presentation frame.
func (m *Model) apply(f engine.Frame) tea.Cmd {
	switch f.Kind {
	case engine.FrameNarration, engine.FrameLine:
		return m.startStep(f.Speaker, f.Text)

	case engine.FrameChoices:
		m.choices = f.Choices

	case engine.FrameHotspots:
		m.hotspots = f.Hotspots
		if m.hotspotIdx >= len(m.hotspots) {
			m.hotspotIdx = 0
		}

	case engine.FrameHideDialogue:
		m.finishReveal()
		m.tw = nil
		m.speaker = ""
		m.choices = nil
		m.stepGen++

	case engine.FrameCounters:
		if f.Withered != nil {
			m.withered = *f.Withered
		}
		if f.Suspicion != nil {
			m.suspicion = *f.Suspicion
		}

	case engine.FrameEffect:
		if f.Effect == engine.EffectFlicker {
			m.flicker = true
			m.effectGen++
			return effectDone(m.effectGen)
		}

	case engine.FrameMessage:
		m.appendLog(entry{kind: entryMessage, text: f.Text})
		return m.showMessage(f.Text)

	case engine.FrameStyle:
		m.style = f.Style
		m.refreshLog()

	case engine.FrameScene:
		m.background = f.Background
		m.style = f.Style
		m.hotspots = nil
		m.hotspotIdx = 0
		m.loading = true
		m.sceneGen++
		if title := sceneTitle(f.Background); title != "" {
			m.appendLog(entry{kind: entryScene, text: title})
		}
		return tea.Batch(m.spinner.Tick, sceneReady(m.opts.SceneDelay, m.sceneGen))

	case engine.FrameEnding:
		m.loading = false
		m.endingID = f.EndingID
		if f.Ending != nil {
			m.ending = *f.Ending
		}
		m.appendLog(entry{kind: entryEnding, text: m.ending.Title})
		m.screen = screenEnding
	}
	return nil
}

// startStep begins the typewriter reveal of a narration or line.
func (m *Model) startStep(speaker, text string) tea.Cmd {
	m.finishReveal()
	m.speaker = speaker
	m.choices = nil
	m.tw = typewriter.New(text, m.settings.RevealInterval())
	m.logged = false
	m.stepGen++
	gen := m.stepGen

	var cmds []tea.Cmd
	if m.tw.Interval() <= 0 {
		m.finishReveal()
	} else {
		cmds = append(cmds, revealTick(m.tw.Interval(), gen))
	}
	if m.settings.AutoMode {
		cmds = append(cmds, autoAdvance(m.settings.AutoDelay(text), gen))
	}
	return tea.Batch(cmds...)
}

// finishReveal flushes the current step and records it in the transcript
// once.
func (m *Model) finishReveal() {
	if m.tw == nil || m.logged {
		return
	}
	m.tw.Flush()
	m.logged = true

	kind := entryNarration
	if m.speaker != "" {
		kind = entryLine
	}
	m.appendLog(entry{kind: kind, speaker: m.speaker, text: m.tw.Text()})
}
