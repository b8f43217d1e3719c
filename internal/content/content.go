// Package content embeds the default scene catalog.
package content

import (
	_ "embed"
	"fmt"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
)

const DefaultFileName = "peach_blossom.json"

//go:embed peach_blossom.json
var peachBlossomJSON []byte

// PeachBlossomJSON returns the raw embedded catalog.
func PeachBlossomJSON() []byte {
	return peachBlossomJSON
}

// PeachBlossom parses and validates the embedded catalog. Each call returns
// a fresh copy.
func PeachBlossom() (*scenario.Scenario, error) {
	s, err := scenario.Load(peachBlossomJSON, scenario.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded catalog: %w", err)
	}
	s.FileName = DefaultFileName
	return s, nil
}

// MustPeachBlossom is PeachBlossom for callers that cannot proceed without
// the embedded catalog, such as tests and program startup.
func MustPeachBlossom() *scenario.Scenario {
	s, err := PeachBlossom()
	if err != nil {
		panic(err)
	}
	return s
}
