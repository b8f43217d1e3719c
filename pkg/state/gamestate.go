package state

import (
	"fmt"
	"slices"
)

// Branch names the narrative route the player is on.
type Branch string

const BranchNormal Branch = "normal"

// WitheredThreshold is the number of withered petals that unlocks the hidden branch.
const WitheredThreshold = 3

// NarrativeState is the mutable progress of one playthrough.
//
// Fields are exported for serialization. Game code mutates them through the
// methods below so that HiddenBranchUnlocked only ever moves from false to true.
type NarrativeState struct {
	WitheredCount        int      `json:"withered_count"`
	SuspicionLevel       int      `json:"suspicion_level"` // Unclamped, may go negative
	HiddenBranchUnlocked bool     `json:"hidden_branch_unlocked"`
	CurrentBranch        Branch   `json:"current_branch"`
	Inventory            []string `json:"inventory"`
	VisitedScenes        []string `json:"visited_scenes"` // History, duplicates allowed
	ChoiceHistory        []string `json:"choice_history"`
}

// NewNarrativeState returns the state of a fresh game.
func NewNarrativeState() *NarrativeState {
	return &NarrativeState{
		CurrentBranch: BranchNormal,
		Inventory:     make([]string, 0),
		VisitedScenes: make([]string, 0),
		ChoiceHistory: make([]string, 0),
	}
}

// The getters treat a nil state as a fresh one.
func (ns *NarrativeState) IsHiddenUnlocked() bool { return ns != nil && ns.HiddenBranchUnlocked }

func (ns *NarrativeState) GetSuspicionLevel() int {
	if ns == nil {
		return 0
	}
	return ns.SuspicionLevel
}

// UnlockHiddenBranch sets the hidden branch flag. It reports whether this call
// changed the flag.
func (ns *NarrativeState) UnlockHiddenBranch() bool {
	if ns.HiddenBranchUnlocked {
		return false
	}
	ns.HiddenBranchUnlocked = true
	return true
}

// AdjustSuspicion adds delta to the suspicion level and optionally unlocks
// the hidden branch. An unlock request never re-locks.
func (ns *NarrativeState) AdjustSuspicion(delta int, unlocksHidden bool) {
	ns.SuspicionLevel += delta
	if unlocksHidden {
		ns.UnlockHiddenBranch()
	}
}

// RecordWitheredPetal counts one withered petal. It reports whether this
// petal crossed WitheredThreshold for the first time, in which case the
// hidden branch is unlocked and suspicion raised to at least 1.
func (ns *NarrativeState) RecordWitheredPetal() bool {
	before := ns.WitheredCount
	ns.WitheredCount++
	if before >= WitheredThreshold || ns.WitheredCount < WitheredThreshold {
		return false
	}

	ns.UnlockHiddenBranch()
	if ns.SuspicionLevel < 1 {
		ns.SuspicionLevel = 1
	}
	return true
}

func (ns *NarrativeState) AddItem(item string) {
	ns.Inventory = append(ns.Inventory, item)
}

func (ns *NarrativeState) RecordVisit(sceneID string) {
	ns.VisitedScenes = append(ns.VisitedScenes, sceneID)
}

func (ns *NarrativeState) RecordChoice(choiceID string) {
	ns.ChoiceHistory = append(ns.ChoiceHistory, choiceID)
}

func (ns *NarrativeState) SetBranch(b Branch) {
	ns.CurrentBranch = b
}

// Clone returns a deep copy.
func (ns *NarrativeState) Clone() *NarrativeState {
	if ns == nil {
		return nil
	}
	c := *ns
	c.Inventory = slices.Clone(ns.Inventory)
	c.VisitedScenes = slices.Clone(ns.VisitedScenes)
	c.ChoiceHistory = slices.Clone(ns.ChoiceHistory)
	if c.Inventory == nil {
		c.Inventory = make([]string, 0)
	}
	if c.VisitedScenes == nil {
		c.VisitedScenes = make([]string, 0)
	}
	if c.ChoiceHistory == nil {
		c.ChoiceHistory = make([]string, 0)
	}
	return &c
}

// Validate checks the structural invariants of a state restored from outside
// the process.
func (ns *NarrativeState) Validate() error {
	if ns == nil {
		return fmt.Errorf("narrative state is missing")
	}
	if ns.WitheredCount < 0 {
		return fmt.Errorf("withered_count must not be negative, got %d", ns.WitheredCount)
	}
	if ns.CurrentBranch == "" {
		return fmt.Errorf("current_branch is required")
	}
	for i, item := range ns.Inventory {
		if item == "" {
			return fmt.Errorf("inventory item %d is empty", i)
		}
	}
	for i, id := range ns.VisitedScenes {
		if id == "" {
			return fmt.Errorf("visited scene %d is empty", i)
		}
	}
	for i, id := range ns.ChoiceHistory {
		if id == "" {
			return fmt.Errorf("choice history entry %d is empty", i)
		}
	}
	return nil
}
