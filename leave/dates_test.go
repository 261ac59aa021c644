package leave_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brillar/hr-portal/leave"
)

// =============================================================================
// FLEXIBLE DATE PARSING
// =============================================================================

func TestParseFlexibleDateDashFormat(t *testing.T) {
	got := leave.ParseFlexibleDate("15-Mar-24")
	if got == nil {
		t.Fatal("expected a date, got nil")
	}
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseFlexibleDateFullMonthName(t *testing.T) {
	got := leave.ParseFlexibleDate("1-January-2025")
	if got == nil {
		t.Fatal("expected a date, got nil")
	}
	want := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseFlexibleDateISO(t *testing.T) {
	got := leave.ParseFlexibleDate("2024-03-15")
	if got == nil {
		t.Fatal("expected a date, got nil")
	}
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseFlexibleDateSentinels(t *testing.T) {
	for _, value := range []string{"current", "Present", "N/A", "na", "yes", "no", ""} {
		if got := leave.ParseFlexibleDate(value); got != nil {
			t.Errorf("ParseFlexibleDate(%q) = %v, want nil", value, got)
		}
	}
}

func TestParseFlexibleDateGarbage(t *testing.T) {
	for _, value := range []string{"soon", "32-Foo-24", "not a date"} {
		if got := leave.ParseFlexibleDate(value); got != nil {
			t.Errorf("ParseFlexibleDate(%q) = %v, want nil", value, got)
		}
	}
}

func TestResolveDateFieldFallsThroughKeys(t *testing.T) {
	doc := map[string]json.RawMessage{
		"startDate":        json.RawMessage(`"garbage"`),
		"start_date":       json.RawMessage(`"2024-07-01"`),
		"fullTimeStartDate": json.RawMessage(`""`),
	}
	got := leave.ResolveDateField(doc, "fullTimeStartDate", "startDate", "start_date")
	if got == nil {
		t.Fatal("expected a date, got nil")
	}
	want := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveDateFieldEpochMillis(t *testing.T) {
	stamp := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.Local)
	millis, _ := json.Marshal(stamp.UnixMilli())
	doc := map[string]json.RawMessage{"startDate": millis}
	got := leave.ResolveDateField(doc, "startDate")
	if got == nil {
		t.Fatal("expected a date, got nil")
	}
	if !got.Equal(stamp) {
		t.Errorf("got %v, want %v", got, stamp)
	}
}

// =============================================================================
// LEAVE CYCLE
// =============================================================================

func TestCurrentCycleAfterJuly(t *testing.T) {
	c := leave.CurrentCycle(time.Date(2025, time.September, 1, 12, 0, 0, 0, time.Local))
	if c.Start.Year() != 2025 || c.Start.Month() != time.July || c.Start.Day() != 1 {
		t.Errorf("cycle start = %v, want 2025-07-01", c.Start)
	}
	if c.End.Year() != 2026 || c.End.Month() != time.June || c.End.Day() != 30 {
		t.Errorf("cycle end = %v, want 2026-06-30", c.End)
	}
	if c.YearLabel != "2025-2026" {
		t.Errorf("year label = %q", c.YearLabel)
	}
}

func TestCurrentCycleBeforeJuly(t *testing.T) {
	c := leave.CurrentCycle(time.Date(2026, time.June, 30, 12, 0, 0, 0, time.Local))
	if c.Start.Year() != 2025 {
		t.Errorf("cycle start year = %d, want 2025", c.Start.Year())
	}
	if !c.Contains(time.Date(2026, time.June, 30, 12, 0, 0, 0, time.Local)) {
		t.Error("cycle should contain June 30")
	}
	if c.Contains(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.Local)) {
		t.Error("cycle should not contain July 1 of the next cycle")
	}
}

// =============================================================================
// ACCRUAL MONTH ENUMERATION
// =============================================================================

func TestAccrualMonthsMidMonthStart(t *testing.T) {
	w := leave.Window{
		Start: time.Date(2025, time.October, 15, 0, 0, 0, 0, time.Local),
		End:   time.Date(2026, time.June, 30, 0, 0, 0, 0, time.Local),
	}
	months := leave.AccrualMonths(w, time.Date(2025, time.December, 10, 0, 0, 0, 0, time.Local))
	if len(months) != 3 {
		t.Fatalf("got %d months, want 3 (Oct, Nov, Dec)", len(months))
	}
	if months[0].Month() != time.October || months[2].Month() != time.December {
		t.Errorf("unexpected months: %v", months)
	}
}

func TestAccrualMonthsBeforeWindowStart(t *testing.T) {
	w := leave.Window{
		Start: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.Local),
		End:   time.Date(2026, time.June, 30, 0, 0, 0, 0, time.Local),
	}
	months := leave.AccrualMonths(w, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.Local))
	if len(months) != 0 {
		t.Errorf("got %d months, want 0", len(months))
	}
}
