/*
calculator.go - Leave balance calculation

PURPOSE:
  Computes, per employee and leave type, the prorated accrued entitlement,
  the approved days taken, and the resulting balance for the current leave
  cycle. This is the core of the leave system: everything else is glue
  around ComputeLeaveState.

ALGORITHM:
  1. Clip the employee's employment dates to the cycle (the effective
     window). Internship start counts as employment start when earlier
     than the full-time start.
  2. Enumerate the months of the window that have begun by asOf; each
     contributes entitlement/12 days, capped at the entitlement.
  3. Count approved application days inside the cycle up to asOf,
     excluding weekends and holidays; half-day applications count 0.5
     when their date is a working day.
  4. Balance = accrued - taken, one-decimal rounding throughout.

PRECISION:
  Internal arithmetic uses decimal.Decimal so that 14/12-style monthly
  rates accumulate without float drift; persisted values are float64 after
  the contractual one-decimal rounding.

DETERMINISM:
  Pure function of (employee, applications, holidays, asOf). No storage
  access, no clock reads when asOf is supplied, no mutation of inputs.
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	twelve  = decimal.NewFromInt(12)
	halfDay = decimal.NewFromFloat(0.5)
	oneDay  = decimal.NewFromInt(1)
)

// Options control a calculation run. A zero AsOf means "now"; a nil Cycle
// derives the cycle from AsOf.
type Options struct {
	AsOf  time.Time
	Cycle *Cycle
}

// State is the result of a calculation: the persisted balances document
// plus the per-type accrued/taken components for callers that report them.
type State struct {
	Balances Balances
	Accrued  map[Type]float64
	Taken    map[Type]float64
	Cycle    Cycle
}

// ComputeLeaveState computes the full leave state for one employee.
func ComputeLeaveState(emp *Employee, applications []Application, holidays []Holiday, opts Options) State {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	cycle := CurrentCycle(asOf)
	if opts.Cycle != nil {
		cycle = *opts.Cycle
	}

	accrued := accruedDays(emp, cycle, asOf)
	taken := takenDays(emp.ID, applications, cycle, asOf, holidays)

	balances := DefaultBalances()
	accruedOut := make(map[Type]float64, len(Types()))
	takenOut := make(map[Type]float64, len(Types()))

	for _, t := range Types() {
		entitlement := decimal.NewFromFloat(emp.Entitlement(t))
		monthly := entitlement.Div(twelve)

		capped := accrued[t]
		if capped.GreaterThan(entitlement) {
			capped = entitlement
		}
		takenValue := taken[t]
		balance := capped.Sub(takenValue).Round(1)

		entry := balances.ForType(t)
		entry.YearlyAllocation = entitlement.InexactFloat64()
		entry.MonthlyAccrual = monthly.InexactFloat64()
		entry.Accrued = capped.Round(1).InexactFloat64()
		entry.Taken = takenValue.Round(1).InexactFloat64()
		entry.Balance = balance.InexactFloat64()

		accruedOut[t] = entry.Accrued
		takenOut[t] = entry.Taken
	}

	cycleStart := cycle.Start
	cycleEnd := cycle.End
	lastRun := asOf
	balances.CycleStart = &cycleStart
	balances.CycleEnd = &cycleEnd
	balances.LastAccrualRun = &lastRun

	return State{Balances: balances, Accrued: accruedOut, Taken: takenOut, Cycle: cycle}
}

// =============================================================================
// EFFECTIVE EMPLOYMENT WINDOW
// =============================================================================

// EmploymentWindow clips the employee's employment dates to the cycle.
// Employment start is the earliest of internship and full-time start when
// present, else the cycle start. Employment end is the full-time end, else
// the internship end when no full-time start exists, else the cycle end.
// The second return value is false when the window is empty (employment
// ended before the cycle, or starts after it).
func (e *Employee) EmploymentWindow(c Cycle) (Window, bool) {
	cycleStart := StartOfDay(c.Start)
	cycleEnd := StartOfDay(c.End)

	start := e.employmentStart(cycleStart)
	end := e.employmentEnd(cycleEnd)

	if start.Before(cycleStart) {
		start = cycleStart
	}
	if end.After(cycleEnd) {
		end = cycleEnd
	}
	if start.After(end) {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

func (e *Employee) employmentStart(fallback time.Time) time.Time {
	if t := ResolveDateField(e.raw, internshipStartKeys...); t != nil {
		return StartOfDay(*t)
	}
	if t := ResolveDateField(e.raw, fullTimeStartKeys...); t != nil {
		return StartOfDay(*t)
	}
	return fallback
}

func (e *Employee) employmentEnd(fallback time.Time) time.Time {
	fullTimeEnd := ResolveDateField(e.raw, fullTimeEndKeys...)
	if fullTimeEnd != nil {
		return StartOfDay(*fullTimeEnd)
	}
	// An internship end only terminates employment when the employee never
	// converted to full time.
	fullTimeStart := ResolveDateField(e.raw, fullTimeStartKeys...)
	internshipEnd := ResolveDateField(e.raw, internshipEndKeys...)
	if fullTimeStart == nil && internshipEnd != nil {
		return StartOfDay(*internshipEnd)
	}
	return fallback
}

// =============================================================================
// ACCRUAL
// =============================================================================

func accruedDays(emp *Employee, cycle Cycle, asOf time.Time) map[Type]decimal.Decimal {
	totals := make(map[Type]decimal.Decimal, len(Types()))
	for _, t := range Types() {
		totals[t] = decimal.Zero
	}

	window, ok := emp.EmploymentWindow(cycle)
	if !ok {
		return totals
	}

	months := int64(len(AccrualMonths(window, asOf)))
	for _, t := range Types() {
		monthly := decimal.NewFromFloat(emp.Entitlement(t)).Div(twelve)
		totals[t] = monthly.Mul(decimal.NewFromInt(months)).Round(1)
	}
	return totals
}

// =============================================================================
// TAKEN DAYS
// =============================================================================

func takenDays(employeeID FlexID, applications []Application, cycle Cycle, asOf time.Time, holidays []Holiday) map[Type]decimal.Decimal {
	totals := make(map[Type]decimal.Decimal, len(Types()))
	for _, t := range Types() {
		totals[t] = decimal.Zero
	}

	startBoundary := StartOfDay(cycle.Start)
	endBoundary := StartOfDay(asOf)
	if cycle.End.Before(endBoundary) {
		endBoundary = StartOfDay(cycle.End)
	}

	holidaySet := HolidaySet(holidays)

	for i := range applications {
		app := &applications[i]
		if app.EmployeeID != employeeID || !app.Approved() {
			continue
		}
		if _, supported := totals[app.Type]; !supported {
			continue
		}

		from := ParseFlexibleDate(app.From)
		to := ParseFlexibleDate(app.To)
		if from == nil || to == nil {
			continue
		}
		if to.Before(startBoundary) || from.After(endBoundary) {
			continue
		}

		days := countLeaveDays(app, StartOfDay(*from), StartOfDay(*to), startBoundary, endBoundary, holidaySet)
		totals[app.Type] = totals[app.Type].Add(days).Round(1)
	}
	return totals
}

// countLeaveDays counts working days of one application inside the queried
// range. Weekends and holidays are excluded; a half-day application counts
// 0.5 when its single date (from) is a working day inside the range.
func countLeaveDays(app *Application, from, to, rangeStart, rangeEnd time.Time, holidaySet map[string]bool) decimal.Decimal {
	start := from
	if start.Before(rangeStart) {
		start = rangeStart
	}
	end := to
	if end.After(rangeEnd) {
		end = rangeEnd
	}
	if end.Before(start) {
		return decimal.Zero
	}

	if app.HalfDay {
		if !start.Equal(from) {
			return decimal.Zero
		}
		if isWorkingDay(from, holidaySet) {
			return halfDay
		}
		return decimal.Zero
	}

	days := decimal.Zero
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		if isWorkingDay(cursor, holidaySet) {
			days = days.Add(oneDay)
		}
	}
	return days
}

func isWorkingDay(day time.Time, holidaySet map[string]bool) bool {
	wd := day.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidaySet[day.Format("2006-01-02")]
}
