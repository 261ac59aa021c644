package api

import (
	"testing"
	"time"
)

func TestNextMonthlyRun(t *testing.T) {
	local := time.Local
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"mid month rolls to next first",
			time.Date(2025, time.September, 15, 12, 0, 0, 0, local),
			time.Date(2025, time.October, 1, 0, 10, 0, 0, local),
		},
		{
			"before the fire time on the first stays same day",
			time.Date(2025, time.September, 1, 0, 5, 0, 0, local),
			time.Date(2025, time.September, 1, 0, 10, 0, 0, local),
		},
		{
			"exactly at the fire time moves a month ahead",
			time.Date(2025, time.September, 1, 0, 10, 0, 0, local),
			time.Date(2025, time.October, 1, 0, 10, 0, 0, local),
		},
		{
			"december rolls into january",
			time.Date(2025, time.December, 20, 8, 0, 0, 0, local),
			time.Date(2026, time.January, 1, 0, 10, 0, 0, local),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextMonthlyRun(tc.now); !got.Equal(tc.want) {
				t.Errorf("nextMonthlyRun(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestGetNextRunTimeIsInTheFuture(t *testing.T) {
	s := NewAccrualScheduler(nil)
	next := s.GetNextRunTime()
	if !next.After(time.Now()) {
		t.Errorf("next run %v is not in the future", next)
	}
	if next.Day() != 1 || next.Hour() != 0 || next.Minute() != 10 {
		t.Errorf("next run %v is not a 1st-of-month 00:10 slot", next)
	}
}

func TestDisabledSchedulerDoesNotStart(t *testing.T) {
	s := NewAccrualScheduler(nil)
	s.Enabled = false
	s.Start()
	if s.timer != nil {
		t.Error("disabled scheduler should not arm a timer")
	}
	s.Stop()
}
