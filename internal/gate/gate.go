// Package gate holds the duty-cycle policy that decides whether a capture
// attempt should run on a given interval tick.
package gate

import (
	"fmt"
	"strings"
	"time"
)

// Reason names the check that refused a capture.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonOutOfSchedule Reason = "out of scheduled time-range"
	ReasonSafeZone      Reason = "user is in safe-zone"
	ReasonScreenOff     Reason = "screen device is off"
)

// TimeOfDay is a wall-clock offset from local midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q (use HH:MM or HH:MM:SS)", s)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// Of returns the time of day of ts in ts's own location.
func Of(ts time.Time) TimeOfDay {
	h, m, s := ts.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(ts.Nanosecond()))
}

// Schedule is the daily window [Begin, End) during which monitoring is active.
// A window whose Begin is after its End wraps past midnight.
type Schedule struct {
	Begin TimeOfDay
	End   TimeOfDay
}

// ParseSchedule builds a schedule from two clock strings.
func ParseSchedule(begin, end string) (*Schedule, error) {
	b, err := ParseTimeOfDay(begin)
	if err != nil {
		return nil, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return nil, err
	}
	return &Schedule{Begin: b, End: e}, nil
}

// Contains reports whether now falls inside the window.
func (s Schedule) Contains(now time.Time) bool {
	t := Of(now)
	if s.Begin <= s.End {
		return t >= s.Begin && t < s.End
	}
	return t >= s.Begin || t < s.End
}

func (s Schedule) String() string {
	return s.Begin.String() + "-" + s.End.String()
}

// Decision is the gate's verdict plus the first check that refused, if any.
type Decision struct {
	Capture bool   `json:"capture"`
	Reason  Reason `json:"reason,omitempty"`
}

// Decide runs the schedule, safe-zone and screen checks in that order.
// A nil schedule disables the time window.
func Decide(now time.Time, schedule *Schedule, anyZoneSafe, screenInteractive bool) Decision {
	if schedule != nil && !schedule.Contains(now) {
		return Decision{Reason: ReasonOutOfSchedule}
	}
	if anyZoneSafe {
		return Decision{Reason: ReasonSafeZone}
	}
	if !screenInteractive {
		return Decision{Reason: ReasonScreenOff}
	}
	return Decision{Capture: true}
}

// ShouldCapture is Decide without the reason.
func ShouldCapture(now time.Time, schedule *Schedule, anyZoneSafe, screenInteractive bool) bool {
	return Decide(now, schedule, anyZoneSafe, screenInteractive).Capture
}
