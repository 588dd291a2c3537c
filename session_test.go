package svgmin

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dotSVG = `<svg viewBox="0 0 1 1"> <rect width="1.0" height="1.0"/> </svg>`

func newTestSession(t *testing.T, debounce time.Duration) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Debounce = debounce
	s := NewSession(cfg)
	t.Cleanup(s.Close)
	return s
}

func TestSessionDebounce(t *testing.T) {
	s := newTestSession(t, 30*time.Millisecond)

	var calls atomic.Int32
	var mu sync.Mutex
	var last *Result
	s.OnResult(func(r *Result) {
		calls.Add(1)
		mu.Lock()
		last = r
		mu.Unlock()
	})

	// a burst of edits inside the quiet period, only the last one is processed
	for i := 0; i < 5; i++ {
		s.SetInput(`<svg viewBox="0 0 1 1"><circle r="0.` + string(rune('1'+i)) + `0"/></svg>`)
	}
	final := `<svg viewBox="0 0 1 1"><circle r="0.90"/></svg>`
	s.SetInput(final)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, last)
	assert.Equal(t, final, last.Input)
	assert.Equal(t, `<svg viewBox="0 0 1 1"><circle r="0.9"/></svg>`, last.Active)
	assert.Same(t, last, s.Result())
}

func TestSessionFlush(t *testing.T) {
	s := newTestSession(t, time.Hour)
	assert.Nil(t, s.Result())

	s.SetInput(dotSVG)
	res := s.Flush()
	require.NotNil(t, res)
	assert.Equal(t, dotSVG, res.Input)
	assert.Equal(t, `<svg viewBox="0 0 1 1"><rect width="1" height="1"/></svg>`, res.Active)
	assert.Equal(t, Balanced, res.Settings.Level)
}

func TestSessionSettingsReprocess(t *testing.T) {
	s := newTestSession(t, time.Hour)
	s.SetInput(dotSVG)
	first := s.Flush()

	s.SetOptimize(false)
	res := s.Result()
	require.NotNil(t, res)
	assert.Greater(t, res.Seq, first.Seq)
	assert.Equal(t, dotSVG, res.Active)

	s.SetOptimize(true)
	s.SetLevel(Maximum)
	s.SetComponentName("dot")
	s.SetStrict(true)
	res = s.Result()
	assert.Equal(t, Settings{Level: Maximum, Optimize: true, Strict: true, ComponentName: "dot"}, res.Settings)
	assert.Equal(t, res.Settings, s.Settings())
	assert.Contains(t, res.Outputs.JSX, "const Dot = (")
}

func TestSessionSettingsWithoutInput(t *testing.T) {
	s := newTestSession(t, time.Hour)
	var calls int
	s.OnResult(func(*Result) { calls++ })
	s.SetLevel(Aggressive)
	assert.Equal(t, 0, calls)
	assert.Nil(t, s.Result())
}

func TestSessionChangeDuringDelivery(t *testing.T) {
	s := newTestSession(t, time.Hour)

	var levels []Level
	s.OnResult(func(r *Result) {
		levels = append(levels, r.Settings.Level)
		if len(levels) == 1 {
			// arrives while the first pass is still running: queued, not run concurrently
			s.SetLevel(Maximum)
		}
	})
	s.SetInput(dotSVG)
	res := s.Flush()

	assert.Equal(t, []Level{Balanced, Maximum}, levels)
	assert.Equal(t, Maximum, res.Settings.Level)
}

func TestSessionClear(t *testing.T) {
	s := newTestSession(t, time.Hour)
	s.SetInput(dotSVG)
	require.NotNil(t, s.Flush())

	s.Clear()
	assert.Nil(t, s.Result())
	assert.Nil(t, s.Flush())
}
