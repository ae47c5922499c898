package attendance

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Window is the daily time-of-day range [Start, End) in which submissions are accepted.
type Window struct {
	Start time.Duration // since midnight
	End   time.Duration
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing time of day %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParseWindow parses two HH:MM times of day.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, errors.Errorf("window end %s must be after start %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// Allows reports whether the wall clock of t falls inside the window.
// t must already be in the school's location.
func (w Window) Allows(t time.Time) bool {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	since := t.Sub(midnight)
	return since >= w.Start && since < w.End
}

func (w Window) String() string {
	clock := func(d time.Duration) string {
		return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
	}
	return clock(w.Start) + "-" + clock(w.End)
}
