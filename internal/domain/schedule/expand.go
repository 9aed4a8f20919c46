// Package schedule turns a user-declared recurring schedule into concrete
// trigger descriptors. It performs no I/O.
package schedule

import (
	"fmt"
	"time"
)

// Trigger describes one platform scheduling request. Weekly triggers carry
// Weekday/Hour/Minute with Repeats set; one-shot triggers carry only a
// relative delay.
type Trigger struct {
	// Weekday uses the registrar's numbering, 1=Sunday through 7=Saturday.
	Weekday int
	Hour    int
	Minute  int
	Repeats bool
	After   time.Duration
}

// Expand produces one weekly trigger per distinct in-range weekday, ordered
// ascending by the 0=Sunday index. Malformed times and empty day sets yield
// an empty result; the caller treats that as "no active schedule".
func Expand(scheduledTime string, days []int) []Trigger {
	hour, minute, err := ParseClock(scheduledTime)
	if err != nil {
		return nil
	}
	normalized := Normalize(days)
	triggers := make([]Trigger, 0, len(normalized))
	for _, d := range normalized {
		triggers = append(triggers, Trigger{
			Weekday: mapWeekday(d),
			Hour:    hour,
			Minute:  minute,
			Repeats: true,
		})
	}
	return triggers
}

// OneShot builds a trigger that fires once after the given delay.
func OneShot(after time.Duration) Trigger {
	return Trigger{After: after}
}

// ParseClock parses a strict two-digit 24h "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}

// Normalize sorts a weekday set ascending, dropping duplicates and indexes
// outside 0..6.
func Normalize(days []int) []int {
	var seen [7]bool
	for _, d := range days {
		if d >= 0 && d <= 6 {
			seen[d] = true
		}
	}
	out := make([]int, 0, len(days))
	for d := 0; d < 7; d++ {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}

// mapWeekday converts a 0=Sunday..6=Saturday index into the registrar's
// 1=Sunday..7=Saturday numbering.
func mapWeekday(d int) int {
	if d == 0 {
		return 1
	}
	return d + 1
}
