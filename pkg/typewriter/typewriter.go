// Package typewriter reveals text one rune per tick.
//
// A Typewriter is a cancellable timed iterator: the caller schedules a tick
// every Interval and calls Next on each tick. Flush cancels the remaining
// ticks by revealing everything at once.
package typewriter

import "time"

// Typewriter tracks incremental reveal of a single piece of text.
type Typewriter struct {
	runes    []rune
	pos      int
	interval time.Duration
}

// New creates a typewriter for text that reveals one rune per interval.
// A non-positive interval reveals the whole text on the first tick.
func New(text string, interval time.Duration) *Typewriter {
	return &Typewriter{
		runes:    []rune(text),
		interval: interval,
	}
}

// Interval is the delay between ticks.
func (t *Typewriter) Interval() time.Duration {
	return t.interval
}

// Next reveals the next rune. It returns false once nothing remains, in
// which case no further tick should be scheduled.
func (t *Typewriter) Next() (rune, bool) {
	if t.Done() {
		return 0, false
	}
	if t.interval <= 0 {
		t.Flush()
		return t.runes[len(t.runes)-1], true
	}
	r := t.runes[t.pos]
	t.pos++
	return r, true
}

// Flush reveals the remainder immediately and returns the full text.
func (t *Typewriter) Flush() string {
	t.pos = len(t.runes)
	return string(t.runes)
}

// Done reports whether the full text has been revealed.
func (t *Typewriter) Done() bool {
	return t.pos >= len(t.runes)
}

// Revealed returns the text revealed so far.
func (t *Typewriter) Revealed() string {
	return string(t.runes[:t.pos])
}

// Text returns the full text regardless of progress.
func (t *Typewriter) Text() string {
	return string(t.runes)
}

// Remaining is the number of runes still hidden.
func (t *Typewriter) Remaining() int {
	return len(t.runes) - t.pos
}
