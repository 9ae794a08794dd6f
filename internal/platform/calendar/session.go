// Package calendar provides trading-session awareness for the exchange.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// SessionGate reports whether continuous trading is in progress at a given instant.
// Implementations may consult a holiday calendar; WindowGate does not.
type SessionGate interface {
	IsOpen(t time.Time) bool
	Describe() string
}

// Window is a local-time interval expressed in minutes since midnight.
// Both bounds are inclusive.
type Window struct {
	Open  int
	Close int
}

// WindowGate opens on weekdays during fixed local-time windows.
type WindowGate struct {
	loc     *time.Location
	windows []Window
}

var _ SessionGate = (*WindowGate)(nil)

// NewWindowGate builds a gate for the given time zone and windows.
func NewWindowGate(loc *time.Location, windows []Window) *WindowGate {
	return &WindowGate{loc: loc, windows: windows}
}

// NewWindowGateFromSpec parses a zone name and window specs such as "09:00-12:30".
func NewWindowGateFromSpec(zone string, specs []string) (*WindowGate, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", zone, err)
	}
	windows := make([]Window, 0, len(specs))
	for _, s := range specs {
		w, err := ParseWindow(s)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return NewWindowGate(loc, windows), nil
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	open, closeAt, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("session window %q: want HH:MM-HH:MM", s)
	}
	o, err := parseClock(open)
	if err != nil {
		return Window{}, fmt.Errorf("session window %q: %w", s, err)
	}
	c, err := parseClock(closeAt)
	if err != nil {
		return Window{}, fmt.Errorf("session window %q: %w", s, err)
	}
	if c < o {
		return Window{}, fmt.Errorf("session window %q: close before open", s)
	}
	return Window{Open: o, Close: c}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// IsOpen reports whether t falls on a weekday inside one of the windows, in the exchange zone.
// Minute resolution: 12:30:59 still counts as 12:30.
func (g *WindowGate) IsOpen(t time.Time) bool {
	local := t.In(g.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	m := local.Hour()*60 + local.Minute()
	for _, w := range g.windows {
		if m >= w.Open && m <= w.Close {
			return true
		}
	}
	return false
}

// Describe renders the gate for skip messages, e.g. "09:00-12:30, 14:30-17:00 Asia/Kuala_Lumpur, Mon-Fri".
func (g *WindowGate) Describe() string {
	parts := make([]string, 0, len(g.windows))
	for _, w := range g.windows {
		parts = append(parts, fmt.Sprintf("%02d:%02d-%02d:%02d", w.Open/60, w.Open%60, w.Close/60, w.Close%60))
	}
	return fmt.Sprintf("%s %s, Mon-Fri", strings.Join(parts, ", "), g.loc.String())
}

// TradingDate returns the calendar date of t in the exchange zone, as midnight UTC.
// DailyBar dates are stored in this normalized form.
func (g *WindowGate) TradingDate(t time.Time) time.Time {
	return DateIn(t, g.loc)
}

// DateIn truncates t to its calendar date in loc and returns it as midnight UTC.
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
