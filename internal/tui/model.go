// Package tui is the terminal presentation of the engine, playable locally
// or over SSH.
package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/blossom-engine/pkg/engine"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/settings"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
	"github.com/jwebster45206/blossom-engine/pkg/typewriter"
)

type screen int

const (
	screenTitle screen = iota
	screenSettings
	screenSlots
	screenGame
	screenEnding
)

var titleMenu = []string{"New Game", "Load Game", "Settings", "Quit"}

const (
	menuNewGame = iota
	menuLoad
	menuSettings
	menuQuit
)

// Options configure a Model.
type Options struct {
	Catalog    *scenario.Scenario
	Storage    storage.Storage // nil disables saves and persisted settings
	Settings   settings.Settings
	SceneDelay time.Duration // loading indicator shown before a scene starts
	SlotPrefix string        // namespaces save slots, e.g. per SSH user
	Logger     *slog.Logger
}

// Model is the Bubble Tea model for a play session.
//
// The engine renders into a Recorder. After every dispatch the model drains
// the recorded frames and applies them to its own view state, so all engine
// calls happen on the Bubble Tea update loop.
type Model struct {
	opts    Options
	logger  *slog.Logger
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	log     viewport.Model

	screen        screen
	returnTo      screen // where settings and the slot list go back to
	showQuitModal bool
	width         int
	height        int

	menuIdx     int
	settingsIdx int
	slots       []storage.SlotInfo
	slotIdx     int
	slotsErr    error

	settings settings.Settings

	eng *engine.Engine
	rec *engine.Recorder

	background string
	style      string
	speaker    string
	tw         *typewriter.Typewriter
	logged     bool // current step is in the transcript
	stepGen    int
	choices    []engine.ChoiceView
	hotspots   []engine.HotspotView
	hotspotIdx int
	withered   int
	suspicion  int
	loading    bool
	sceneGen   int
	flicker    bool
	effectGen  int
	message    string
	messageGen int
	status     string

	endingID   string
	ending     scenario.Ending
	transcript []entry
}

// NewModel creates the model on its title screen.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := opts.Settings
	if s == (settings.Settings{}) {
		s = settings.Default()
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)

	vp := viewport.New(60, 10)
	vp.MouseWheelEnabled = true

	h := help.New()
	h.ShowAll = false

	return Model{
		opts:     opts,
		logger:   logger,
		keys:     DefaultKeyMap(),
		help:     h,
		spinner:  sp,
		log:      vp,
		screen:   screenTitle,
		settings: s,
		rec:      engine.NewRecorder(),
	}
}

func (m Model) Init() tea.Cmd {
	if m.opts.Storage != nil {
		return loadSettings(m.opts.Storage)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case revealTickMsg, autoAdvanceMsg, sceneReadyMsg, slotSavedMsg, clipboardMsg:
		return m.updateTimers(msg)
	case clearMessageMsg:
		if msg.gen == m.messageGen {
			m.message = ""
		}
		return m, nil
	case effectDoneMsg:
		if msg.gen == m.effectGen {
			m.flicker = false
		}
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case settingsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load settings, using defaults", "error", msg.err)
			return m, nil
		}
		m.settings = msg.settings
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to save settings", "error", msg.err)
			m.status = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case slotsListedMsg:
		m.slotsErr = msg.err
		m.slots = msg.slots
		m.slotIdx = 0
		return m, nil

	case slotLoadedMsg:
		return m.handleSlotLoaded(msg)
	}

	switch m.screen {
	case screenTitle:
		return m.updateTitle(msg)
	case screenSettings:
		return m.updateSettings(msg)
	case screenSlots:
		return m.updateSlots(msg)
	case screenEnding:
		return m.updateEnding(msg)
	default:
		return m.updateGame(msg)
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	m.log.Width = max(width-4, 10)
	// Header, dialogue box, hotspot row, message line and help
	m.log.Height = max(height-16, 3)
	m.refreshLog()
}

func (m *Model) refreshLog() {
	m.log.SetContent(renderTranscript(m.transcript, stylesFor(m.style), m.log.Width-2))
	m.log.GotoBottom()
}

func (m *Model) appendLog(e entry) {
	m.transcript = append(m.transcript, e)
	m.refreshLog()
}

func (m *Model) showMessage(text string) tea.Cmd {
	m.message = text
	m.messageGen++
	return clearMessage(m.messageGen)
}

func (m Model) slotName(name string) string {
	return m.opts.SlotPrefix + name
}

func (m Model) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
		return m, tea.Quit
	}
	switch keyMsg.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

func (m Model) updateTitle(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.showQuitModal = true
	case key.Matches(keyMsg, m.keys.Up):
		if m.menuIdx > 0 {
			m.menuIdx--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.menuIdx < len(titleMenu)-1 {
			m.menuIdx++
		}
	case key.Matches(keyMsg, m.keys.Select):
		switch m.menuIdx {
		case menuNewGame:
			return m, m.newGame()
		case menuLoad:
			return m, m.openSlots()
		case menuSettings:
			m.returnTo = screenTitle
			m.settingsIdx = 0
			m.screen = screenSettings
		case menuQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	const rows = 3
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		m.screen = m.returnTo
		if m.opts.Storage != nil {
			return m, saveSettings(m.opts.Storage, m.settings)
		}
	case keyMsg.Type == tea.KeyCtrlC:
		m.showQuitModal = true
	case key.Matches(keyMsg, m.keys.Up):
		if m.settingsIdx > 0 {
			m.settingsIdx--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.settingsIdx < rows-1 {
			m.settingsIdx++
		}
	case key.Matches(keyMsg, m.keys.Left):
		m.adjustSetting(-1)
	case key.Matches(keyMsg, m.keys.Right), key.Matches(keyMsg, m.keys.Select):
		m.adjustSetting(1)
	}
	return m, nil
}

// adjustSetting moves the text speed slider or flips a toggle.
func (m *Model) adjustSetting(delta int) {
	switch m.settingsIdx {
	case 0:
		m.settings.TextSpeed = settings.SpeedForLevel(m.settings.Level() + delta)
	case 1:
		m.settings.AutoMode = !m.settings.AutoMode
	case 2:
		m.settings.SkipMode = !m.settings.SkipMode
	}
}

func (m *Model) openSlots() tea.Cmd {
	if m.opts.Storage == nil {
		m.status = "Saving is not available in this session"
		return nil
	}
	m.returnTo = m.screen
	m.screen = screenSlots
	m.slots = nil
	m.slotsErr = nil
	return listSlots(m.opts.Storage)
}

// ownSlots are the listed slots under this session's prefix.
func (m Model) ownSlots() []storage.SlotInfo {
	if m.opts.SlotPrefix == "" {
		return m.slots
	}
	var out []storage.SlotInfo
	for _, s := range m.slots {
		if len(s.Name) > len(m.opts.SlotPrefix) && s.Name[:len(m.opts.SlotPrefix)] == m.opts.SlotPrefix {
			out = append(out, s)
		}
	}
	return out
}

func (m Model) updateSlots(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	slots := m.ownSlots()
	switch {
	case key.Matches(keyMsg, m.keys.Back):
		m.screen = m.returnTo
	case keyMsg.Type == tea.KeyCtrlC:
		m.showQuitModal = true
	case key.Matches(keyMsg, m.keys.Up):
		if m.slotIdx > 0 {
			m.slotIdx--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.slotIdx < len(slots)-1 {
			m.slotIdx++
		}
	case key.Matches(keyMsg, m.keys.Select):
		if m.slotIdx < len(slots) {
			return m, loadSlot(m.opts.Storage, slots[m.slotIdx].Name)
		}
	}
	return m, nil
}

func (m Model) handleSlotLoaded(msg slotLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("Failed to read save slot", "slot", msg.slot, "error", msg.err)
		m.status = msg.err.Error()
		return m, nil
	}

	fresh := m.eng == nil
	if fresh {
		m.resetGame()
	}
	m.status = ""
	if err := m.eng.Load(msg.blob); err != nil {
		m.logger.Warn("Rejected save slot", "slot", msg.slot, "error", err)
		m.status = err.Error()
		if fresh {
			m.eng = nil
		}
		m.rec.Reset()
		return m, nil
	}

	m.logger.Info("Save slot loaded", "slot", msg.slot)
	m.screen = screenGame
	cmd := m.drain()
	return m, tea.Batch(cmd, m.showMessage(fmt.Sprintf("Loaded %s", m.displaySlot(msg.slot))))
}

func (m Model) displaySlot(name string) string {
	if m.opts.SlotPrefix != "" && len(name) > len(m.opts.SlotPrefix) {
		return name[len(m.opts.SlotPrefix):]
	}
	return name
}

func (m Model) updateEnding(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.showQuitModal = true
	case key.Matches(keyMsg, m.keys.Copy):
		return m, copyTranscript(transcriptText(m.transcript))
	case key.Matches(keyMsg, m.keys.Select):
		m.eng = nil
		m.screen = screenTitle
		m.menuIdx = 0
	}
	return m, nil
}

// resetGame discards the current playthrough's view state and engine.
func (m *Model) resetGame() {
	m.rec.Reset()
	m.eng = engine.New(m.opts.Catalog, m.rec, m.logger)
	m.background, m.style, m.speaker = "", "", ""
	m.tw = nil
	m.logged = false
	m.stepGen++
	m.choices = nil
	m.hotspots = nil
	m.hotspotIdx = 0
	m.withered, m.suspicion = 0, 0
	m.loading = false
	m.sceneGen++
	m.flicker = false
	m.message, m.status = "", ""
	m.endingID = ""
	m.ending = scenario.Ending{}
	m.transcript = nil
	m.refreshLog()
}

func (m *Model) newGame() tea.Cmd {
	m.resetGame()
	m.screen = screenGame
	return m.dispatch(engine.NewGame{})
}

// Engine exposes the running engine; nil before a game starts.
func (m Model) Engine() *engine.Engine {
	return m.eng
}

// Settings returns the player's current preferences.
func (m Model) Settings() settings.Settings {
	return m.settings
}
