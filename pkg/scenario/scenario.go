package scenario

// Ending is a terminal routing target. Reaching one ends the interactive session.
type Ending struct {
	Title string `json:"title" yaml:"title"`                   // Shown on the ending screen
	Text  string `json:"text,omitempty" yaml:"text,omitempty"` // Closing narration
}

// Scenario is the scene catalog for one story. It is loaded once at startup
// and never mutated at runtime.
type Scenario struct {
	Name          string            `json:"name" yaml:"name"`                     // Display name of the story
	FileName      string            `json:"file_name,omitempty" yaml:"-"`         // Name of the file the catalog was loaded from
	Story         string            `json:"story,omitempty" yaml:"story,omitempty"` // Brief description for title screens
	OpeningScene  string            `json:"opening_scene" yaml:"opening_scene"`   // Scene a new game starts in
	DefaultEnding string            `json:"default_ending" yaml:"default_ending"` // Fallback for unrecognized ending ids
	Scenes        map[string]Scene  `json:"scenes" yaml:"scenes"`                 // Scene id → scene
	Endings       map[string]Ending `json:"endings" yaml:"endings"`               // Closed set of ending ids
}

// GetScene looks up a scene by id.
func (s *Scenario) GetScene(sceneID string) (*Scene, bool) {
	if s == nil || s.Scenes == nil {
		return nil, false
	}
	sc, ok := s.Scenes[sceneID]
	if !ok {
		return nil, false
	}
	return &sc, true
}

// ResolveEnding maps an ending id onto the closed set of endings.
// Unrecognized ids fall back to the default ending; the second return value
// reports whether the id was recognized.
func (s *Scenario) ResolveEnding(endingID string) (string, Ending, bool) {
	if e, ok := s.Endings[endingID]; ok {
		return endingID, e, true
	}
	return s.DefaultEnding, s.Endings[s.DefaultEnding], false
}
