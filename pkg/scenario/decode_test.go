package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/pkg/conditionals"
)

const yamlCatalog = `
name: Tiny Tale
opening_scene: grove
default_ending: A
endings:
  A:
    title: Home again
  C:
    title: The truth
scenes:
  grove:
    background: grove.png
    style: pink-style
    script:
      - type: narration
        text: Petals fall.
      - type: line
        speaker: Fisherman
        text: How strange.
      - type: choice
        choices:
          - id: leave
            text: Leave
            action:
              type: goto_ending
              ending: A
          - id: doubt
            text: Doubt everything
            condition: hidden_unlocked
            action:
              type: goto_ending
              ending: C
          - id: press
            text: Press the elder
            condition:
              type: suspicion_at_least
              threshold: 2
    hotspots:
      - id: withered
        x: 10
        y: 20
        width: 30
        height: 30
        effect: withered_petal
`

func TestParse_YAML(t *testing.T) {
	s, err := Parse([]byte(yamlCatalog), FormatYAML, true)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	grove, ok := s.GetScene("grove")
	require.True(t, ok)
	require.Len(t, grove.Script, 3)
	assert.Equal(t, StepLine, grove.Script[1].Type)
	assert.Equal(t, "Fisherman", grove.Script[1].Speaker)

	choices := grove.Script[2].Choices
	require.Len(t, choices, 3)
	assert.Nil(t, choices[0].Condition)
	assert.Equal(t, &conditionals.Predicate{Type: conditionals.PredicateHiddenUnlocked}, choices[1].Condition)
	assert.Equal(t, &conditionals.Predicate{Type: conditionals.PredicateSuspicionAtLeast, Threshold: 2}, choices[2].Condition)

	require.Len(t, grove.Hotspots, 1)
	assert.Equal(t, EffectWitheredPetal, grove.Hotspots[0].Effect)
}

func TestParse_JSONStrictRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"name":"x","opening_scene":"a","default_ending":"A","scenes":{},"endings":{},"surprise":true}`)

	_, err := Parse(data, FormatJSON, true)
	assert.Error(t, err)

	_, err = Parse(data, FormatJSON, false)
	assert.NoError(t, err)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"name":`), FormatJSON, false)
	assert.Error(t, err)
}

func TestLoad_ValidatesReferences(t *testing.T) {
	data := []byte(`{
		"name": "Broken",
		"opening_scene": "a",
		"default_ending": "A",
		"endings": {"A": {"title": "End"}},
		"scenes": {
			"a": {"background": "a.png", "script": [
				{"type": "choice", "choices": [{"id": "go", "text": "Go", "action": {"type": "goto_scene", "scene": "b"}}]}
			]}
		}
	}`)

	_, err := Load(data, FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown scene "b"`)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{path: "stories/peach.json", expected: FormatJSON},
		{path: "stories/peach.yaml", expected: FormatYAML},
		{path: "stories/peach.YML", expected: FormatYAML},
		{path: "stories/peach.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}
