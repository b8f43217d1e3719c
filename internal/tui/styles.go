package tui

import (
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// palette is the set of colors for one scene style.
type palette struct {
	accent lipgloss.Color
	text   lipgloss.Color
	dim    lipgloss.Color
	border lipgloss.Color
}

var palettes = map[string]palette{
	"pink-style": {accent: "205", text: "225", dim: "175", border: "218"},
	"dark-style": {accent: "97", text: "250", dim: "240", border: "60"},
}

var defaultPalette = palette{accent: "205", text: "255", dim: "240", border: "62"}

func paletteFor(style string) palette {
	if p, ok := palettes[style]; ok {
		return p
	}
	return defaultPalette
}

// sceneStyles are the lipgloss styles derived from a palette.
type sceneStyles struct {
	title    lipgloss.Style
	speaker  lipgloss.Style
	text     lipgloss.Style
	dim      lipgloss.Style
	box      lipgloss.Style
	choice   lipgloss.Style
	hotspot  lipgloss.Style
	selected lipgloss.Style
}

func stylesFor(style string) sceneStyles {
	p := paletteFor(style)
	return sceneStyles{
		title:   lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		speaker: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		text:    lipgloss.NewStyle().Foreground(p.text),
		dim:     lipgloss.NewStyle().Foreground(p.dim),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 2),
		choice:  lipgloss.NewStyle().Foreground(p.text),
		hotspot: lipgloss.NewStyle().Foreground(p.dim),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(p.accent).
			Bold(true),
	}
}

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Italic(true)

	// flickerStyle replaces the dialogue box border for the withered effect
	flickerStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("94")).
			Foreground(lipgloss.Color("137")).
			Padding(0, 2)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("218")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	modalDisabledItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

// sceneTitle turns a background reference such as
// "resources/scene1_opening.png" into a heading like "Scene1 Opening".
func sceneTitle(background string) string {
	name := path.Base(background)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return ""
	}
	return titleCase(name)
}

// titleCase builds a fresh Caser per call; a Caser is stateful and SSH
// sessions render concurrently.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
