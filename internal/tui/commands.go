package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/blossom-engine/pkg/settings"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

const (
	storageTimeout  = 5 * time.Second
	messageDuration = 3 * time.Second
	flickerDuration = 600 * time.Millisecond
)

// Timer messages carry the generation they were scheduled for. A message
// whose generation is stale belongs to a step, scene or effect that has
// already been replaced and is dropped.
type revealTickMsg struct{ gen int }
type autoAdvanceMsg struct{ gen int }
type sceneReadyMsg struct{ gen int }
type effectDoneMsg struct{ gen int }
type clearMessageMsg struct{ gen int }

type settingsLoadedMsg struct {
	settings settings.Settings
	err      error
}

type settingsSavedMsg struct {
	err error
}

type slotSavedMsg struct {
	slot string
	err  error
}

type slotsListedMsg struct {
	slots []storage.SlotInfo
	err   error
}

type slotLoadedMsg struct {
	slot string
	blob []byte
	err  error
}

type clipboardMsg struct {
	err error
}

func revealTick(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

func autoAdvance(delay time.Duration, gen int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return autoAdvanceMsg{gen: gen}
	})
}

func sceneReady(delay time.Duration, gen int) tea.Cmd {
	if delay <= 0 {
		return func() tea.Msg { return sceneReadyMsg{gen: gen} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return sceneReadyMsg{gen: gen}
	})
}

func effectDone(gen int) tea.Cmd {
	return tea.Tick(flickerDuration, func(time.Time) tea.Msg {
		return effectDoneMsg{gen: gen}
	})
}

func clearMessage(gen int) tea.Cmd {
	return tea.Tick(messageDuration, func(time.Time) tea.Msg {
		return clearMessageMsg{gen: gen}
	})
}

func loadSettings(store storage.Storage) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		s, err := store.LoadSettings(ctx)
		return settingsLoadedMsg{settings: s, err: err}
	}
}

func saveSettings(store storage.Storage, s settings.Settings) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		return settingsSavedMsg{err: store.SaveSettings(ctx, s)}
	}
}

func saveSlot(store storage.Storage, slot string, blob []byte) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := store.SaveSlot(ctx, slot, blob); err != nil {
			return slotSavedMsg{slot: slot, err: fmt.Errorf("failed to save slot %s: %w", slot, err)}
		}
		return slotSavedMsg{slot: slot}
	}
}

func listSlots(store storage.Storage) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		slots, err := store.ListSlots(ctx)
		return slotsListedMsg{slots: slots, err: err}
	}
}

func loadSlot(store storage.Storage, slot string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		blob, err := store.LoadSlot(ctx, slot)
		if err != nil {
			return slotLoadedMsg{slot: slot, err: fmt.Errorf("failed to load slot %s: %w", slot, err)}
		}
		return slotLoadedMsg{slot: slot, blob: blob}
	}
}

func copyTranscript(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(text)}
	}
}
