package settings

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	DefaultTextSpeed = 50 // milliseconds per rune
	MinSpeedLevel    = 0
	MaxSpeedLevel    = 4

	// autoPauseRunes is the extra pause after a line in auto mode,
	// expressed in reveal ticks.
	autoPauseRunes = 10
)

// Settings are player preferences. They are persisted separately from save games.
type Settings struct {
	TextSpeed int  `json:"text_speed"` // Milliseconds between revealed runes
	AutoMode  bool `json:"auto_mode"`
	SkipMode  bool `json:"skip_mode"`
}

func Default() Settings {
	return Settings{TextSpeed: DefaultTextSpeed}
}

// SpeedForLevel maps a slider level (0 slowest .. 4 fastest) to a text speed.
func SpeedForLevel(level int) int {
	level = max(MinSpeedLevel, min(MaxSpeedLevel, level))
	return 100 - level*20
}

// Level is the inverse of SpeedForLevel.
func (s Settings) Level() int {
	return max(MinSpeedLevel, min(MaxSpeedLevel, (100-s.TextSpeed)/20))
}

// RevealInterval is the typewriter tick for the current settings. Skip mode
// reveals instantly.
func (s Settings) RevealInterval() time.Duration {
	if s.SkipMode {
		return 0
	}
	return time.Duration(s.TextSpeed) * time.Millisecond
}

// AutoDelay is how long auto mode waits after a step starts before
// advancing. It grows with the length of the text.
func (s Settings) AutoDelay(text string) time.Duration {
	n := utf8.RuneCountInString(text) + autoPauseRunes
	return time.Duration(n*max(s.TextSpeed, 1)) * time.Millisecond
}

func (s Settings) Validate() error {
	if s.TextSpeed < 0 || s.TextSpeed > 1000 {
		return fmt.Errorf("text_speed must be between 0 and 1000, got %d", s.TextSpeed)
	}
	return nil
}
