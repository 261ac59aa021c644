package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brillar/hr-portal/leave"
)

// fixtureSource is an in-memory DataSource for recalculation tests.
type fixtureSource struct {
	data       leave.Data
	writeErr   error
	syncCalls  int
	lastRoster []leave.Employee
}

func (f *fixtureSource) LeaveData(ctx context.Context) (leave.Data, error) {
	return f.data, nil
}

func (f *fixtureSource) SyncEmployees(ctx context.Context, employees []leave.Employee) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.syncCalls++
	f.lastRoster = employees
	f.data.Employees = employees
	return nil
}

func fixtureRoster(t *testing.T) *fixtureSource {
	t.Helper()
	return &fixtureSource{data: leave.Data{
		Employees: []leave.Employee{
			newEmployee(t, "e1", map[string]any{"name": "Asha", "fullTimeStartDate": "2024-01-01"}),
			newEmployee(t, "e2", map[string]any{"name": "Ravi", "fullTimeStartDate": "2025-08-20"}),
		},
		Applications: []leave.Application{
			approvedApp("e1", leave.TypeAnnual, "2025-09-01", "2025-09-02", false),
		},
	}}
}

func TestRecalculateAllUpdatesRoster(t *testing.T) {
	source := fixtureRoster(t)
	recalc := &leave.Recalculator{Source: source}

	summary, err := recalc.RecalculateAll(context.Background(), midDecember)
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
	if summary.Updated != 2 {
		t.Errorf("updated = %d, want 2", summary.Updated)
	}
	if source.syncCalls != 1 {
		t.Errorf("sync calls = %d, want 1", source.syncCalls)
	}

	balances := source.lastRoster[0].LeaveBalances
	if balances == nil {
		t.Fatal("expected balances stamped on employee")
	}
	if balances.Annual.Taken != 2.0 {
		t.Errorf("annual taken = %v, want 2.0", balances.Annual.Taken)
	}
}

func TestRecalculateAllIsIdempotent(t *testing.T) {
	source := fixtureRoster(t)
	recalc := &leave.Recalculator{Source: source}

	if _, err := recalc.RecalculateAll(context.Background(), midDecember); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A later run with unchanged inputs must not rewrite the roster even
	// though lastAccrualRun would differ.
	later := midDecember.Add(45 * time.Minute)
	summary, err := recalc.RecalculateAll(context.Background(), later)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Updated != 0 {
		t.Errorf("second run updated = %d, want 0", summary.Updated)
	}
	if source.syncCalls != 1 {
		t.Errorf("sync calls = %d, want 1", source.syncCalls)
	}
}

func TestRecalculateAllAbortsOnWriteFailure(t *testing.T) {
	source := fixtureRoster(t)
	source.writeErr = errors.New("disk full")
	recalc := &leave.Recalculator{Source: source}

	_, err := recalc.RecalculateAll(context.Background(), midDecember)
	if err == nil {
		t.Fatal("expected error from failed write")
	}
	if source.syncCalls != 0 {
		t.Errorf("sync calls = %d, want 0", source.syncCalls)
	}
}

func TestRecalculateAllSkipsWriteWhenNothingChanged(t *testing.T) {
	source := &fixtureSource{data: leave.Data{}}
	recalc := &leave.Recalculator{Source: source}

	summary, err := recalc.RecalculateAll(context.Background(), midDecember)
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	if summary.Processed != 0 || summary.Updated != 0 {
		t.Errorf("summary = %+v, want zero processed and updated", summary)
	}
	if source.syncCalls != 0 {
		t.Errorf("sync calls = %d, want 0", source.syncCalls)
	}
}
