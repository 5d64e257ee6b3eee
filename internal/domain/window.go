package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned when a window's bounds are not strictly
// increasing. Window validation happens before any computation starts.
var ErrInvalidWindow = errors.New("window start must be before window end")

// Window is the half-open analysis period [From, To). All interval
// clipping and percentage math is relative to one window.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewWindow validates and returns a window.
func NewWindow(from, to time.Time) (Window, error) {
	if !from.Before(to) {
		return Window{}, fmt.Errorf("%w: from=%s to=%s", ErrInvalidWindow, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	return Window{From: from, To: to}, nil
}

// DefaultWindow returns the standard reporting window: `days` trailing
// days ending `lag` before now. The lag keeps the window clear of
// records still arriving from the stores.
func DefaultWindow(now time.Time, days int, lag time.Duration) Window {
	to := now.Add(-lag)

	return Window{From: to.AddDate(0, 0, -days), To: to}
}

// Seconds returns the window length in seconds.
func (w Window) Seconds() float64 {
	return w.To.Sub(w.From).Seconds()
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Clamp clips [start, end) to the window. The returned ok is false when
// the clipped interval is empty.
func (w Window) Clamp(start, end time.Time) (time.Time, time.Time, bool) {
	if start.Before(w.From) {
		start = w.From
	}
	if end.After(w.To) {
		end = w.To
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
