/*
dates.go - Leave cycle and flexible date handling

PURPOSE:
  Pure date utilities for the leave accrual engine. Employee records come
  from legacy spreadsheet imports and carry dates in wildly inconsistent
  textual formats ("15-Mar-24", "2024-03-15", "current", free text). The
  policy here is deliberate: bad input degrades to nil, never to an error.

KEY CONCEPTS:
  - Leave cycle: the annual accrual period, July 1 through June 30.
  - Flexible parsing: ISO-like layouts plus the "D-Mon-YY" dash format used
    by the original HR spreadsheets. Two-digit years mean 2000+YY.
  - Sentinel values: "current", "present", "n/a", "na", "yes", "no" are
    placeholders meaning "no date", and parse to nil.
  - Candidate keys: one logical date (employment start) may live under
    several legacy field names; ResolveDateField tries them in order.

SEE ALSO:
  - calculator.go: effective employment window and accrual computation
*/
package leave

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// FLEXIBLE DATE PARSING
// =============================================================================

// dashFormat matches "15-Mar-24" and "15-March-2024" style values.
var dashFormat = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3,})-(\d{2,4})$`)

// sentinels are textual placeholders that mean "no date".
var sentinels = map[string]bool{
	"current": true,
	"present": true,
	"n/a":     true,
	"na":      true,
	"yes":     true,
	"no":      true,
}

var monthLookup = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// isoLayouts are tried in order after the dash format.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseFlexibleDate parses a textual date from legacy employee data.
// Returns nil for empty values, sentinel placeholders, and anything
// unparseable. It never returns an error: data-quality problems must not
// break the accrual run.
func ParseFlexibleDate(value string) *time.Time {
	str := strings.TrimSpace(value)
	if str == "" {
		return nil
	}
	if sentinels[strings.ToLower(str)] {
		return nil
	}

	if m := dashFormat.FindStringSubmatch(str); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthLookup[strings.ToLower(m[2][:3])]
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if ok {
			t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
			return &t
		}
		return nil
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, str, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// ResolveDateField tries each candidate key in order against a raw document
// and returns the first value that parses to a date. Values may be JSON
// strings or epoch-millisecond numbers; anything else is skipped.
func ResolveDateField(doc map[string]json.RawMessage, keys ...string) *time.Time {
	for _, key := range keys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			if t := ParseFlexibleDate(str); t != nil {
				return t
			}
			continue
		}
		var millis int64
		if err := json.Unmarshal(raw, &millis); err == nil && millis > 0 {
			t := time.UnixMilli(millis).In(time.Local)
			return &t
		}
	}
	return nil
}

// StartOfDay truncates a time to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// =============================================================================
// LEAVE CYCLE - July 1 through June 30
// =============================================================================

// Cycle is the annual accrual period. Not persisted per employee; derived
// from "now" whenever a calculation runs.
type Cycle struct {
	Start     time.Time
	End       time.Time
	YearLabel string
}

// CurrentCycle returns the leave cycle containing now. The cycle starts on
// July 1 of the current year when now falls on/after July 1, otherwise of
// the previous year, and ends June 30 23:59:59.999 of the following year.
func CurrentCycle(now time.Time) Cycle {
	year := now.Year()
	if now.Month() < time.July {
		year--
	}
	return Cycle{
		Start:     time.Date(year, time.July, 1, 0, 0, 0, 0, time.Local),
		End:       time.Date(year+1, time.June, 30, 23, 59, 59, int(999*time.Millisecond), time.Local),
		YearLabel: fmt.Sprintf("%d-%d", year, year+1),
	}
}

// Contains reports whether t falls inside the cycle.
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// =============================================================================
// ACCRUAL MONTH ENUMERATION
// =============================================================================

// Window is an employee's effective employment interval clipped to a cycle.
type Window struct {
	Start time.Time
	End   time.Time
}

// AccrualMonths lists the first-of-month anchors whose months contribute
// accrual inside the window, up to asOf. A month counts when at least one
// day of the window-clipped, cutoff-clipped interval falls within it.
func AccrualMonths(w Window, asOf time.Time) []time.Time {
	cutoff := StartOfDay(asOf)
	accrualEnd := w.End
	if cutoff.Before(accrualEnd) {
		accrualEnd = cutoff
	}

	var months []time.Time
	cursor := monthStart(w.Start)
	for !cursor.After(accrualEnd) {
		activeStart := cursor
		if activeStart.Before(w.Start) {
			activeStart = w.Start
		}
		boundary := monthEnd(cursor)
		if accrualEnd.Before(boundary) {
			boundary = accrualEnd
		}
		if !boundary.Before(activeStart) {
			months = append(months, cursor)
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
