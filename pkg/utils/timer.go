package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a pipeline such as load, build or render.
type Phase struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`

	start     time.Time
	completed bool
}

// PhaseTimer stops a single phase. It is safe to use with defer.
type PhaseTimer struct {
	timer *Timer
	name  string
}

// Stop records the phase duration. Only the first call has effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.stop(pt.name)
}

// Timer records named phases in start order.
type Timer struct {
	mu      sync.Mutex
	name    string
	start   time.Time
	phases  []*Phase
	byName  map[string]*Phase
	logger  Logger
	enabled bool
	clock   Clock
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithLogger sets the logger PrintSummary writes to.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) {
		t.logger = logger
	}
}

// WithEnabled sets whether the timer is enabled. A disabled timer records nothing.
func WithEnabled(enabled bool) TimerOption {
	return func(t *Timer) {
		t.enabled = enabled
	}
}

// WithClock sets a custom clock for testability.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:    name,
		byName:  make(map[string]*Phase),
		enabled: true,
		clock:   NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// Start begins a phase. Restarting a name replaces the earlier measurement.
func (t *Timer) Start(name string) *PhaseTimer {
	pt := &PhaseTimer{timer: t, name: name}
	if !t.enabled {
		return pt
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := &Phase{Name: name, start: t.clock.Now()}
	if _, ok := t.byName[name]; ok {
		for i, old := range t.phases {
			if old.Name == name {
				t.phases[i] = p
			}
		}
	} else {
		t.phases = append(t.phases, p)
	}
	t.byName[name] = p
	return pt
}

func (t *Timer) stop(name string) time.Duration {
	if !t.enabled {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.byName[name]
	if !ok {
		return 0
	}
	if !p.completed {
		p.Duration = t.clock.Since(p.start)
		p.completed = true
	}
	return p.Duration
}

// Time runs fn as the named phase.
func (t *Timer) Time(name string, fn func() error) (time.Duration, error) {
	pt := t.Start(name)
	err := fn()
	return pt.Stop(), err
}

// Duration returns the recorded duration of a phase.
func (t *Timer) Duration(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.byName[name]; ok {
		return p.Duration
	}
	return 0
}

// Total returns the time elapsed since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Since(t.start)
}

// Phases returns copies of all phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, len(t.phases))
	for i, p := range t.phases {
		out[i] = Phase{Name: p.Name, Duration: p.Duration}
	}
	return out
}

// Summary formats all phases, one per line.
func (t *Timer) Summary() string {
	if !t.enabled {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s timing ===\n", t.name)
	for i, p := range t.Phases() {
		fmt.Fprintf(&sb, "%d. %s: %v\n", i+1, p.Name, p.Duration)
	}
	fmt.Fprintf(&sb, "total: %v\n", t.Total())
	return sb.String()
}

// PrintSummary logs the summary at debug level.
func (t *Timer) PrintSummary() {
	if !t.enabled || t.logger == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(t.Summary()), "\n") {
		t.logger.Debug("%s", line)
	}
}

// NullTimer is a disabled timer.
var NullTimer = NewTimer("", WithEnabled(false))
