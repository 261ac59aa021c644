/*
accrual.go - Roster-wide leave recalculation

PURPOSE:
  Orchestrates the balance calculator over the whole employee roster:
  loads the roster, approved applications, and holiday calendar from the
  data source, recomputes every employee's balances for the current cycle,
  and persists the roster in one batch write when anything changed.

IDEMPOTENCE:
  Change detection compares the serialized balances with lastAccrualRun
  masked out, so running twice back-to-back performs zero writes on the
  second run even though the run timestamp differs.

FAILURE MODEL:
  Storage failures abort the run without partial persistence: either the
  batch write succeeds or the previous roster snapshot stays authoritative.
  The scheduler catches and logs the error; there is no retry here.
*/
package leave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Data is the roster view a recalculation run works from. The employees
// belong to the run: it stamps recomputed balances onto them before the
// batch write-back.
type Data struct {
	Employees    []Employee
	Applications []Application
	Holidays     []Holiday
}

// DataSource supplies roster data and accepts the batch write-back. The
// cached store facade implements this; tests use a fixture source.
type DataSource interface {
	// LeaveData returns the current roster. Cached reads are acceptable;
	// the run tolerates staleness up to the cache TTL. The returned
	// employees must be the caller's to mutate, never a shared snapshot.
	LeaveData(ctx context.Context) (Data, error)

	// SyncEmployees replaces the employees collection with the given
	// roster as a single logical batch.
	SyncEmployees(ctx context.Context, employees []Employee) error
}

// Summary reports the outcome of a recalculation run.
type Summary struct {
	Processed  int       `json:"processed"`
	Updated    int       `json:"updated"`
	CycleStart time.Time `json:"cycleStart"`
	CycleEnd   time.Time `json:"cycleEnd"`
	AsOf       time.Time `json:"asOf"`
}

// Recalculator runs the balance calculator over the full roster.
type Recalculator struct {
	Source DataSource
}

// RecalculateAll recomputes leave balances for every employee as of the
// given time (zero means now). Concurrent runs are tolerated: both compute
// the same deterministic result and the loser's write is a no-op.
func (r *Recalculator) RecalculateAll(ctx context.Context, asOf time.Time) (Summary, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	data, err := r.Source.LeaveData(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load roster: %w", err)
	}

	cycle := CurrentCycle(asOf)
	updated := 0

	for i := range data.Employees {
		emp := &data.Employees[i]
		state := ComputeLeaveState(emp, data.Applications, data.Holidays, Options{
			AsOf:  asOf,
			Cycle: &cycle,
		})
		if balancesChanged(emp.LeaveBalances, state.Balances) {
			updated++
			emp.SetBalances(state.Balances)
		}
	}

	if updated > 0 {
		if err := r.Source.SyncEmployees(ctx, data.Employees); err != nil {
			return Summary{}, fmt.Errorf("persist roster: %w", err)
		}
	}

	return Summary{
		Processed:  len(data.Employees),
		Updated:    updated,
		CycleStart: cycle.Start,
		CycleEnd:   cycle.End,
		AsOf:       asOf,
	}, nil
}

// AccrueMonthly is the scheduled-job entry point. It is a plain alias of
// RecalculateAll: the monthly cadence comes from the scheduler, not from
// any state kept here.
func (r *Recalculator) AccrueMonthly(ctx context.Context, now time.Time) (Summary, error) {
	return r.RecalculateAll(ctx, now)
}

// balancesChanged compares serialized balances with the run timestamp
// masked out, so that re-running with an unchanged roster is write-free.
func balancesChanged(prev *Balances, next Balances) bool {
	if prev == nil {
		return true
	}
	a := *prev
	b := next
	a.LastAccrualRun = nil
	b.LastAccrualRun = nil
	rawA, errA := json.Marshal(a)
	rawB, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return true
	}
	return !bytes.Equal(rawA, rawB)
}
