package typewriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypewriter_RevealsOneRunePerTick(t *testing.T) {
	tw := New("桃花源", 50*time.Millisecond)

	assert.Equal(t, "", tw.Revealed())
	assert.Equal(t, 3, tw.Remaining())

	r, ok := tw.Next()
	assert.True(t, ok)
	assert.Equal(t, '桃', r)
	assert.Equal(t, "桃", tw.Revealed())

	tw.Next()
	tw.Next()
	assert.True(t, tw.Done())
	assert.Equal(t, "桃花源", tw.Revealed())

	_, ok = tw.Next()
	assert.False(t, ok, "no ticks after completion")
}

func TestTypewriter_FlushCancelsRemainingTicks(t *testing.T) {
	tw := New("The petals fall.", 50*time.Millisecond)
	tw.Next()
	tw.Next()

	assert.Equal(t, "The petals fall.", tw.Flush())
	assert.True(t, tw.Done())
	assert.Equal(t, 0, tw.Remaining())

	_, ok := tw.Next()
	assert.False(t, ok)
}

func TestTypewriter_ZeroIntervalRevealsAtOnce(t *testing.T) {
	tw := New("instant", 0)

	_, ok := tw.Next()
	assert.True(t, ok)
	assert.True(t, tw.Done())
	assert.Equal(t, "instant", tw.Revealed())
}

func TestTypewriter_EmptyText(t *testing.T) {
	tw := New("", 10*time.Millisecond)

	assert.True(t, tw.Done())
	_, ok := tw.Next()
	assert.False(t, ok)
	assert.Equal(t, "", tw.Text())
}
