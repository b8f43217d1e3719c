package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <catalog.json|catalog.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &CatalogValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Printf("warning: %s\n", w)
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

// CatalogValidator checks a catalog file more strictly than loading does:
// unknown fields are rejected and unreachable content is reported.
type CatalogValidator struct {
	warnings []string
}

func (v *CatalogValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)
	v.warnings = nil

	format, err := scenario.FormatFromPath(filename)
	if err != nil {
		return err
	}

	baseName := filepath.Base(filename)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidCatalogFilename(nameWithoutExt) {
		return fmt.Errorf("catalog filename '%s' must be lowercase snake_case (e.g., my_story.json, not my-story.json or MyStory.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	s, err := scenario.Parse(data, format, true)
	if err != nil {
		return fmt.Errorf("file %s failed strict unmarshaling: %w", filename, err)
	}

	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation errors in %s:\n%s", filename, indent(err))
	}

	v.lint(s)
	return nil
}

// lint reports content no playthrough can reach. These are warnings, not
// errors: an unfinished catalog is still playable.
func (v *CatalogValidator) lint(s *scenario.Scenario) {
	reached := map[string]bool{}
	endings := map[string]bool{s.DefaultEnding: true}

	queue := []string{s.OpeningScene}
	for len(queue) > 0 {
		sceneID := queue[0]
		queue = queue[1:]
		if reached[sceneID] {
			continue
		}
		reached[sceneID] = true

		sc, ok := s.GetScene(sceneID)
		if !ok {
			continue
		}
		exits := 0
		walkActions(sc.Script, func(a scenario.Action) {
			switch a.Type {
			case scenario.ActionGotoScene:
				exits++
				queue = append(queue, a.Scene)
			case scenario.ActionGotoEnding, scenario.ActionSetBranchAndEnd:
				exits++
				endings[a.Ending] = true
			}
		})
		if exits == 0 {
			v.addWarning("scene %s has no way out; players can only quit or load", sceneID)
		}
	}

	for _, sceneID := range sortedKeys(s.Scenes) {
		if !reached[sceneID] {
			v.addWarning("scene %s is never reached from %s", sceneID, s.OpeningScene)
		}
	}
	for _, endingID := range sortedKeys(s.Endings) {
		if !endings[endingID] {
			v.addWarning("ending %s is never reached", endingID)
		}
	}
}

// walkActions calls fn for every choice action in steps, followups included.
func walkActions(steps []scenario.Step, fn func(scenario.Action)) {
	for _, step := range steps {
		for _, c := range step.Choices {
			if c.Action != nil {
				fn(*c.Action)
			}
			walkActions(c.Followup, fn)
		}
	}
}

func (v *CatalogValidator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func indent(err error) string {
	lines := strings.Split(err.Error(), "\n")
	for i, l := range lines {
		lines[i] = "  - " + l
	}
	return strings.Join(lines, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidCatalogFilename(name string) bool {
	// Allow 'x.' prefix for experimental catalogs
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
