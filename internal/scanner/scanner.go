// Package scanner detects barcode scans in a keyboard-wedge input stream.
//
// Wedge scanners type like a keyboard, only much faster: a scan arrives as a
// burst of characters a few milliseconds apart, terminated by Enter. The
// detector separates those bursts from human typing by inter-key timing, so
// scanning works while the operator has any input focused.
package scanner

import (
	"strings"
	"time"
)

// Defaults tuned for common USB wedge scanners. Humans rarely type two
// characters under 50ms apart; scanners rarely exceed 30ms.
const (
	DefaultMaxInterKeyGap = 50 * time.Millisecond
	DefaultMinLength      = 4
)

// KeyEvent is one keystroke from the input stream.
type KeyEvent struct {
	Rune  rune
	Enter bool
	At    time.Time
}

// Detector accumulates keystroke bursts and emits completed scan codes.
// Not safe for concurrent use.
type Detector struct {
	maxGap    time.Duration
	minLength int

	buf    strings.Builder
	lastAt time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithMaxInterKeyGap overrides the burst timing threshold.
func WithMaxInterKeyGap(d time.Duration) Option {
	return func(det *Detector) { det.maxGap = d }
}

// WithMinLength overrides the minimum code length.
func WithMinLength(n int) Option {
	return func(det *Detector) { det.minLength = n }
}

// New creates a detector with default thresholds.
func New(opts ...Option) *Detector {
	d := &Detector{
		maxGap:    DefaultMaxInterKeyGap,
		minLength: DefaultMinLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed processes one keystroke. When the keystroke completes a scan burst,
// the scanned code is returned with ok true. Keystrokes that break the burst
// timing restart accumulation; short Enter-terminated bursts are discarded
// as human input.
func (d *Detector) Feed(ev KeyEvent) (code string, ok bool) {
	if ev.Enter {
		code = d.buf.String()
		d.reset()
		if len(code) >= d.minLength {
			return code, true
		}
		return "", false
	}

	if d.buf.Len() > 0 && ev.At.Sub(d.lastAt) > d.maxGap {
		// Too slow to be a scanner; start over with this keystroke.
		d.reset()
	}
	d.buf.WriteRune(ev.Rune)
	d.lastAt = ev.At
	return "", false
}

// Reset discards any partial burst.
func (d *Detector) Reset() { d.reset() }

func (d *Detector) reset() {
	d.buf.Reset()
	d.lastAt = time.Time{}
}
