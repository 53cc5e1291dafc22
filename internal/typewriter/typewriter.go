// Package typewriter reveals text into a target one character per tick.
package typewriter

import (
	"context"
	"time"

	"github.com/rivo/uniseg"
)

// DefaultTick is the delay between two revealed characters.
const DefaultTick = 20 * time.Millisecond

// Target receives revealed text. Each call appends to what is already shown.
type Target interface {
	AppendText(s string)
}

// Scroller is implemented by targets that can keep their latest content
// in view. It is called after every revealed character.
type Scroller interface {
	ScrollToBottom()
}

// Clock schedules the next tick.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Option configures a Typewriter.
type Option func(*Typewriter)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(t *Typewriter) { t.clock = c }
}

// Typewriter animates text at a uniform tick.
type Typewriter struct {
	tick  time.Duration
	clock Clock
}

// New creates a Typewriter. A non-positive tick falls back to DefaultTick.
func New(tick time.Duration, opts ...Option) *Typewriter {
	if tick <= 0 {
		tick = DefaultTick
	}
	t := &Typewriter{tick: tick, clock: realClock{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tick returns the configured per-character delay.
func (t *Typewriter) Tick() time.Duration { return t.tick }

// Apply reveals text into target and blocks until it is fully shown.
//
// The first character appears immediately and each following character one
// tick after the previous one was committed, so characters are never
// reordered or skipped. A character is a grapheme cluster: emoji and
// combining sequences are revealed whole. onComplete, when non-nil, runs
// exactly once right after the last character; for empty text it runs
// immediately. If ctx is canceled first, Apply returns ctx.Err() and
// onComplete is not called.
func (t *Typewriter) Apply(ctx context.Context, target Target, text string, onComplete func()) error {
	scroller, _ := target.(Scroller)

	state := -1
	rest := text
	first := true
	for len(rest) > 0 {
		if !first {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.clock.After(t.tick):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		first = false

		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		target.AppendText(cluster)
		if scroller != nil {
			scroller.ScrollToBottom()
		}
	}

	if onComplete != nil {
		onComplete()
	}
	return nil
}
