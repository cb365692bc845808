package histlog

import (
	"fmt"
	"time"
)

// Window is a fixed daily wall-clock window, e.g. 09:15–15:30 exchange time.
// No holiday awareness: the window applies every day of the week alike.
type Window struct {
	startMin int // minutes since local midnight, inclusive
	endMin   int // exclusive
	loc      *time.Location
}

// NewWindow parses "HH:MM" bounds in the named timezone.
func NewWindow(start, end, tz string) (Window, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	startMin, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	if endMin <= startMin {
		return Window{}, fmt.Errorf("window end %q not after start %q", end, start)
	}

	return Window{startMin: startMin, endMin: endMin, loc: loc}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	local := t.In(w.loc)
	m := local.Hour()*60 + local.Minute()
	return m >= w.startMin && m < w.endMin
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
