package resilience

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the breaker refuses a call. The payment
// guard surfaces it to checkout as a gateway error instead of letting every
// order wait on a dead provider.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker position.
type State int

const (
	// Closed lets every call through while counting outcomes.
	Closed State = iota
	// Open rejects calls until the cool-off elapses.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var nopLogger = zerolog.Nop()

// Breaker is a failure-ratio circuit breaker. It opens once the observed
// failure ratio crosses the threshold over at least minCalls outcomes, stays
// open for the cool-off window, then probes half-open. The zero value is not
// usable; construct with NewBreaker.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	minCalls  int
	threshold float64
	openedAt  time.Time
	coolOff   time.Duration
	target    string
	logger    *zerolog.Logger
}

// NewBreaker builds a closed breaker. Out-of-range arguments fall back to
// sane defaults rather than erroring, since the values come from wiring
// code, not user input.
func NewBreaker(minCalls int, threshold float64, coolOff time.Duration) *Breaker {
	if minCalls <= 0 {
		minCalls = 1
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	if coolOff <= 0 {
		coolOff = 30 * time.Second
	}
	return &Breaker{
		state:     Closed,
		minCalls:  minCalls,
		threshold: threshold,
		coolOff:   coolOff,
	}
}

// WithTarget names the protected dependency for metric labels and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = strings.TrimSpace(target)
	b.publishStateLocked()
	return b
}

// WithLogger sets the logger used for state-change events.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = &logger
	return b
}

// Allow reports whether a call may proceed. An open breaker admits nothing
// until the cool-off has elapsed, at which point it flips to half-open and
// admits one probe.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return true
	}
	if time.Since(b.openedAt) < b.coolOff {
		return false
	}
	b.setStateLocked(ctx, HalfOpen)
	return true
}

// Report feeds a call outcome back into the breaker. A half-open probe
// decides the next state on its own; closed-state outcomes accumulate until
// the ratio test fires.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		// A straggler finishing after the breaker opened tells us nothing new.
		return
	case HalfOpen:
		if success {
			b.setStateLocked(ctx, Closed)
		} else {
			b.setStateLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}

	total := b.failures + b.successes
	if total < b.minCalls {
		return
	}
	if float64(b.failures)/float64(total) >= b.threshold {
		b.setStateLocked(ctx, Open)
		return
	}
	if total > b.minCalls*2 {
		// Halve the window so old outcomes age out and counters stay bounded.
		b.successes = int(math.Ceil(float64(b.successes) * 0.5))
		b.failures = int(math.Ceil(float64(b.failures) * 0.5))
	}
}

func (b *Breaker) setStateLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		b.publishStateLocked()
		return
	}
	b.state = next
	b.failures = 0
	b.successes = 0
	switch next {
	case Open:
		b.openedAt = time.Now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.publishStateLocked()

	label := b.label()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(label, prev.String(), next.String()).Inc()
	}
	if next == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(label).Inc()
	}

	evt := b.loggerFor(ctx).Info().
		Str("target", label).
		Str("from_state", prev.String()).
		Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) publishStateLocked() {
	if BreakerState == nil {
		return
	}
	BreakerState.WithLabelValues(b.label()).Set(stateGaugeValue(b.state))
}

func (b *Breaker) label() string {
	if b.target == "" {
		return "default"
	}
	return b.target
}

func (b *Breaker) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil {
		logger := ctxLogger.With().Logger()
		return &logger
	}
	if b.logger == nil {
		return &nopLogger
	}
	return b.logger
}

func stateGaugeValue(state State) float64 {
	switch state {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}
