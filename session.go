package svgmin

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/romdo/go-debounce"
)

// Session is one editing session: the current input and settings plus the
// latest result. Input changes are debounced so only the value present after
// the quiet period is processed; setting changes reprocess immediately.
type Session struct {
	mu       sync.Mutex
	pipeline *Pipeline
	settings Settings
	input    string
	result   *Result
	gen      uint64 // bumped on every input or settings change
	running  bool   // a pass is in flight
	pending  bool   // another pass was requested while running
	cancel   context.CancelFunc
	onResult func(*Result)
	log      *log.Logger

	debounced      func()
	cancelDebounce func()
}

func NewSession(cfg *Config) *Session {
	cfg = cfg.withDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	s := &Session{
		pipeline: NewPipeline(logger),
		settings: cfg.Settings(),
		log:      logger,
	}
	s.debounced, s.cancelDebounce = debounce.New(cfg.Debounce, s.process)
	return s
}

// OnResult registers f to receive every result that is still current when it lands.
func (s *Session) OnResult(f func(*Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = f
}

// SetInput records svg as the latest input and schedules processing after
// the debounce window. Superseded values are never processed.
func (s *Session) SetInput(svg string) {
	s.mu.Lock()
	s.input = svg
	s.bumpLocked()
	s.mu.Unlock()
	s.debounced()
}

func (s *Session) SetLevel(level Level) {
	s.update(func(st *Settings) { st.Level = level })
}

func (s *Session) SetOptimize(enabled bool) {
	s.update(func(st *Settings) { st.Optimize = enabled })
}

func (s *Session) SetStrict(strict bool) {
	s.update(func(st *Settings) { st.Strict = strict })
}

func (s *Session) SetComponentName(name string) {
	s.update(func(st *Settings) { st.ComponentName = name })
}

func (s *Session) update(change func(*Settings)) {
	s.mu.Lock()
	change(&s.settings)
	s.bumpLocked()
	hasInput := s.input != ""
	s.mu.Unlock()
	if hasInput {
		s.process()
	}
}

// bumpLocked invalidates whatever pass is running. Caller holds mu.
func (s *Session) bumpLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Flush processes the current input now, skipping any pending debounce wait.
func (s *Session) Flush() *Result {
	s.cancelDebounce()
	s.process()
	return s.Result()
}

// Result returns the latest current result, nil before the first pass.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Clear drops input and result.
func (s *Session) Clear() {
	s.cancelDebounce()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = ""
	s.result = nil
	s.bumpLocked()
}

func (s *Session) Close() {
	s.Clear()
}

// process runs the pipeline for the latest input. Only one pass runs at a
// time; a request arriving meanwhile marks the session pending and the
// running pass loops once more instead of starting a second one.
func (s *Session) process() {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true

	for {
		s.pending = false
		input, settings, gen := s.input, s.settings, s.gen
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.mu.Unlock()

		var res *Result
		var err error
		if input != "" {
			res, err = s.pipeline.Process(ctx, input, settings)
		}
		cancel()

		s.mu.Lock()
		var deliver func(*Result)
		switch {
		case err != nil:
			s.log.Debug("superseded pass dropped", "gen", gen, "err", err)
		case gen != s.gen:
			s.log.Debug("stale result discarded", "gen", gen, "current", s.gen)
		case res != nil:
			res.Seq = gen
			s.result = res
			deliver = s.onResult
		}
		if deliver != nil {
			s.mu.Unlock()
			deliver(res)
			s.mu.Lock()
		}
		if !s.pending {
			break
		}
	}
	s.cancel = nil
	s.running = false
	s.mu.Unlock()
}
