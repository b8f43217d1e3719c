package tui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

type entryKind int

const (
	entryNarration entryKind = iota
	entryLine
	entryChoice
	entryMessage
	entryScene
	entryEnding
)

// entry is one line of the dialogue log.
type entry struct {
	kind    entryKind
	speaker string
	text    string
}

// plain is the clipboard form of an entry.
func (e entry) plain() string {
	switch e.kind {
	case entryLine:
		return e.speaker + ": " + e.text
	case entryChoice:
		return "> " + e.text
	case entryMessage:
		return "* " + e.text
	case entryScene:
		return "== " + e.text + " =="
	case entryEnding:
		return "== Ending: " + e.text + " =="
	default:
		return e.text
	}
}

func (e entry) render(st sceneStyles, width int) string {
	wrap := max(width, 10)
	switch e.kind {
	case entryLine:
		prefix := e.speaker + ": "
		body := wordwrap.String(prefix+e.text, wrap)
		return st.speaker.Render(prefix) + st.text.Render(strings.TrimPrefix(body, prefix))
	case entryChoice:
		return st.dim.Render(wordwrap.String("> "+e.text, wrap))
	case entryMessage:
		return messageStyle.Render(wordwrap.String(e.text, wrap))
	case entryScene, entryEnding:
		return st.title.Render(e.plain())
	default:
		return st.text.Render(wordwrap.String(e.text, wrap))
	}
}

func transcriptText(entries []entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.plain())
	}
	return strings.Join(lines, "\n")
}

func renderTranscript(entries []entry, st sceneStyles, width int) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(e.render(st, width))
	}
	return b.String()
}
