package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/blossom-engine/pkg/settings"
)

func (m Model) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}

	switch m.screen {
	case screenTitle:
		return m.renderTitle()
	case screenSettings:
		return m.renderSettings()
	case screenSlots:
		return m.renderSlots()
	case screenEnding:
		return m.renderEnding()
	default:
		return m.renderGame()
	}
}

func (m Model) place(modal string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m Model) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Spring?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved progress will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	return m.place(modalStyle.Width(50).Render(content.String()))
}

func (m Model) renderTitle() string {
	var content strings.Builder
	name := "Blossom"
	if m.opts.Catalog != nil && m.opts.Catalog.Name != "" {
		name = m.opts.Catalog.Name
	}
	content.WriteString(modalTitleStyle.Render(name))
	content.WriteString("\n\n")
	if m.opts.Catalog != nil && m.opts.Catalog.Story != "" {
		content.WriteString(wordwrap.String(m.opts.Catalog.Story, 50))
		content.WriteString("\n\n")
	}

	for i, item := range titleMenu {
		switch {
		case i == menuLoad && m.opts.Storage == nil:
			content.WriteString(modalDisabledItemStyle.Render("  " + item))
		case i == m.menuIdx:
			content.WriteString(modalSelectedItemStyle.Render("▶ " + item))
		default:
			content.WriteString(modalItemStyle.Render("  " + item))
		}
		content.WriteString("\n")
	}

	if m.status != "" {
		content.WriteString("\n")
		content.WriteString(errorStyle.Render(wordwrap.String(m.status, 50)))
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to quit"))

	return m.place(modalStyle.Width(60).Render(content.String()))
}

func (m Model) renderSettings() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Settings"))
	content.WriteString("\n\n")

	level := m.settings.Level()
	slider := strings.Repeat("●", level+1) + strings.Repeat("○", settings.MaxSpeedLevel-level)
	rows := []string{
		fmt.Sprintf("Text speed  %s  %d", slider, level+1),
		fmt.Sprintf("Auto mode   %s", onOff(m.settings.AutoMode)),
		fmt.Sprintf("Skip mode   %s", onOff(m.settings.SkipMode)),
	}
	for i, row := range rows {
		if i == m.settingsIdx {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + row))
		} else {
			content.WriteString(modalItemStyle.Render("  " + row))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("↑/↓ select, ←/→ adjust, Enter toggle, Esc back"))

	return m.place(modalStyle.Width(60).Render(content.String()))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m Model) renderSlots() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Load Game"))
	content.WriteString("\n\n")

	slots := m.ownSlots()
	switch {
	case m.slotsErr != nil:
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to list saves: %v", m.slotsErr)))
		content.WriteString("\n")
	case m.slots == nil:
		content.WriteString(m.spinner.View() + " Looking for saves...\n")
	case len(slots) == 0:
		content.WriteString(promptStyle.Render("No saved games yet."))
		content.WriteString("\n")
	default:
		for i, s := range slots {
			row := fmt.Sprintf("%-20s %s", m.displaySlot(s.Name), s.UpdatedAt.Local().Format("Jan 2 15:04"))
			if i == m.slotIdx {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + row))
			} else {
				content.WriteString(modalItemStyle.Render("  " + row))
			}
			content.WriteString("\n")
		}
	}

	if m.status != "" {
		content.WriteString("\n")
		content.WriteString(errorStyle.Render(wordwrap.String(m.status, 50)))
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Enter to load, Esc back"))

	return m.place(modalStyle.Width(60).Render(content.String()))
}

func (m Model) renderEnding() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(m.ending.Title))
	content.WriteString("\n\n")
	if m.ending.Text != "" {
		content.WriteString(wordwrap.String(m.ending.Text, 54))
		content.WriteString("\n\n")
	}

	if m.eng != nil {
		st := m.eng.State()
		content.WriteString(promptStyle.Render(fmt.Sprintf("Ending %s · %s path", m.endingID, titleCase(string(st.CurrentBranch)))))
		content.WriteString("\n")
		content.WriteString(promptStyle.Render(fmt.Sprintf("Withered petals %d · Suspicion %d · Petals kept %d",
			st.WitheredCount, st.SuspicionLevel, len(st.Inventory))))
		content.WriteString("\n\n")
	}

	if m.message != "" {
		content.WriteString(messageStyle.Render(m.message))
		content.WriteString("\n")
	}
	if m.status != "" {
		content.WriteString(errorStyle.Render(m.status))
		content.WriteString("\n")
	}
	content.WriteString(promptStyle.Render("Enter for title screen, C to copy transcript, Esc to quit"))

	return m.place(modalStyle.Width(64).Render(content.String()))
}

func (m Model) renderGame() string {
	st := stylesFor(m.style)
	width := max(m.width-4, 20)

	modes := ""
	if m.settings.AutoMode {
		modes += " [AUTO]"
	}
	if m.settings.SkipMode {
		modes += " [SKIP]"
	}
	left := st.title.Render(m.storyName())
	if title := sceneTitle(m.background); title != "" {
		left += st.dim.Render("  ·  " + title)
	}
	right := st.dim.Render(fmt.Sprintf("🥀 %d  ? %d%s", m.withered, m.suspicion, modes))
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	header := left + strings.Repeat(" ", gap) + right

	box := st.box
	if m.flicker {
		box = flickerStyle
	}
	dialogue := box.Width(width - 2).Render(m.renderDialogue(st, width-8))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(dialogue)
	b.WriteString("\n")
	b.WriteString(m.renderHotspots(st))
	b.WriteString("\n")
	switch {
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	case m.message != "":
		b.WriteString(messageStyle.Render(m.message))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (m Model) storyName() string {
	if m.opts.Catalog != nil && m.opts.Catalog.Name != "" {
		return m.opts.Catalog.Name
	}
	return "Blossom"
}

func (m Model) renderDialogue(st sceneStyles, width int) string {
	if m.loading {
		return m.spinner.View() + st.dim.Render(" Loading...")
	}

	var b strings.Builder
	if m.tw != nil {
		if m.speaker != "" {
			b.WriteString(st.speaker.Render(m.speaker))
			b.WriteString("\n")
		}
		b.WriteString(st.text.Render(wordwrap.String(m.tw.Revealed(), width)))
		if !m.tw.Done() {
			b.WriteString(st.dim.Render("▌"))
		}
	}

	if len(m.choices) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		for i, c := range m.choices {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(st.choice.Render(wordwrap.String(fmt.Sprintf("%d. %s", i+1, c.Text), width)))
		}
	}

	if b.Len() == 0 {
		return st.dim.Render("…")
	}
	return b.String()
}

func (m Model) renderHotspots(st sceneStyles) string {
	if len(m.hotspots) == 0 || m.loading {
		return ""
	}
	parts := make([]string, 0, len(m.hotspots))
	for i, h := range m.hotspots {
		label := strings.TrimSpace(h.Icon + " " + h.Tooltip)
		if label == "" {
			label = h.ID
		}
		if i == m.hotspotIdx {
			parts = append(parts, st.selected.Render("["+label+"]"))
		} else {
			parts = append(parts, st.hotspot.Render("["+label+"]"))
		}
	}
	return strings.Join(parts, " ")
}
