package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for range 9 {
		p.Record(PhaseUpdate, 2*time.Millisecond)
		p.Record(PhaseRender, 4*time.Millisecond)
		clock.advance(100 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	p.Record(PhaseUpdate, 2*time.Millisecond)
	p.Record(PhaseRender, 4*time.Millisecond)
	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.InDelta(t, 10.0, s.FPS, 1e-9)
	assert.Equal(t, time.Duration(0), s.PhaseAverage[PhaseInput])
	assert.Equal(t, 2*time.Millisecond, s.PhaseAverage[PhaseUpdate])
	assert.Equal(t, 4*time.Millisecond, s.PhaseAverage[PhaseRender])

	// the next interval starts from zero
	clock.advance(time.Second)
	require.True(t, p.Tick())
	assert.InDelta(t, 1.0, p.Last().FPS, 1e-9)
	assert.Zero(t, p.Last().PhaseAverage[PhaseRender])
}

func TestRecordIgnoresUnknownPhase(t *testing.T) {
	p := NewProfiler()
	assert.NotPanics(t, func() { p.Record(Phase(42), time.Second) })
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Equal(t, "render", PhaseRender.String())
}
