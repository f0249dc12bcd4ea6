package helpers

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoiner(t *testing.T) {
	j := Joiner{}
	assert.Equal(t, "", j.Done())

	j.AddString("var a")
	j.AddString("")
	j.AddString("\n")
	j.AddString("var b")
	assert.Equal(t, 11, j.Length())
	assert.Equal(t, byte('b'), j.LastByte())
	assert.Equal(t, "var a\nvar b", j.Done())
}

func TestNameSet(t *testing.T) {
	var set NameSet
	assert.False(t, set.Has("a"))
	assert.True(t, set.Add("b"))
	assert.True(t, set.Add("a"))
	assert.False(t, set.Add("b"))
	assert.True(t, set.Has("a"))
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"b", "a"}, set.Names())
}

func TestTimerPhases(t *testing.T) {
	timer := &Timer{}
	timer.Begin("build")
	timer.Begin("fetch")
	time.Sleep(time.Millisecond)
	timer.End("fetch")
	timer.Begin("expand")
	timer.End("expand")
	timer.End("build")

	phases := timer.Phases()
	require.Len(t, phases, 3)
	assert.Equal(t, "build", phases[0].Name)
	assert.Equal(t, 0, phases[0].Depth)
	assert.Equal(t, "fetch", phases[1].Name)
	assert.Equal(t, 1, phases[1].Depth)
	assert.GreaterOrEqual(t, phases[0].Duration, phases[1].Duration)
	assert.Equal(t, "expand", phases[2].Name)

	// A nil timer does nothing
	var none *Timer
	none.Begin("x")
	none.End("x")
	assert.Nil(t, none.Phases())
	none.Log(zerolog.Nop())
}
