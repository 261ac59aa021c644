/*
types.go - Leave domain records

PURPOSE:
  Defined record types for the documents the leave engine reads and writes:
  Employee, Application, Holiday, and the persisted Balances shape. Documents
  come from a schemaless store populated by spreadsheet imports, so every
  record validates and defaults itself at the storage boundary instead of
  relying on ad-hoc checks inside the calculator.

ROUND-TRIP CONTRACT:
  Employees and applications keep their raw document alongside the typed
  view. Marshaling merges the fields this system owns (leaveBalances,
  application status) back into the raw document, so a full-roster write
  never drops legacy columns the importer brought in.

SEE ALSO:
  - calculator.go: consumes these records
  - store/cache.go: decodes collections into these types
*/
package leave

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// LEAVE TYPES AND DEFAULT ENTITLEMENTS
// =============================================================================

// Type identifies a leave category.
type Type string

const (
	TypeAnnual  Type = "annual"
	TypeCasual  Type = "casual"
	TypeMedical Type = "medical"
)

// Types returns the supported leave types in canonical order.
func Types() []Type {
	return []Type{TypeAnnual, TypeCasual, TypeMedical}
}

var defaultEntitlements = map[Type]float64{
	TypeAnnual:  10,
	TypeCasual:  5,
	TypeMedical: 14,
}

// DefaultEntitlement returns the yearly allocation for a type when the
// employee carries no override.
func DefaultEntitlement(t Type) float64 {
	return defaultEntitlements[t]
}

// =============================================================================
// FLEXIBLE IDENTIFIERS
// =============================================================================

// FlexID is an opaque identifier that tolerates both JSON strings and
// numbers; imported employees use millisecond-epoch numeric ids while
// server-created documents use UUID strings.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = FlexID(n.String())
		return nil
	}
	*id = ""
	return nil
}

// MarshalJSON preserves numeric ids as numbers so re-written documents keep
// their original key type in the store.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil && id != "" {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// =============================================================================
// PERSISTED BALANCES SHAPE
// =============================================================================

// TypeBalance is the per-type entry inside an employee's leaveBalances.
// All values are days, rounded to one decimal where the contract says so.
type TypeBalance struct {
	Balance          float64 `json:"balance"`
	YearlyAllocation float64 `json:"yearlyAllocation"`
	MonthlyAccrual   float64 `json:"monthlyAccrual"`
	Accrued          float64 `json:"accrued"`
	Taken            float64 `json:"taken"`
}

// Balances is the persisted leaveBalances document embedded in an employee.
type Balances struct {
	Annual         TypeBalance `json:"annual"`
	Casual         TypeBalance `json:"casual"`
	Medical        TypeBalance `json:"medical"`
	CycleStart     *time.Time  `json:"cycleStart"`
	CycleEnd       *time.Time  `json:"cycleEnd"`
	LastAccrualRun *time.Time  `json:"lastAccrualRun"`
}

// ForType returns the entry for a leave type.
func (b *Balances) ForType(t Type) *TypeBalance {
	switch t {
	case TypeAnnual:
		return &b.Annual
	case TypeCasual:
		return &b.Casual
	case TypeMedical:
		return &b.Medical
	}
	return nil
}

// DefaultBalances returns the zero-state balances with default allocations.
func DefaultBalances() Balances {
	var b Balances
	for _, t := range Types() {
		entry := b.ForType(t)
		entry.YearlyAllocation = DefaultEntitlement(t)
		entry.MonthlyAccrual = DefaultEntitlement(t) / 12
	}
	return b
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Candidate key lists for the logical employment dates. Order matters: the
// canonical field first, then the legacy spreadsheet column names.
var (
	internshipStartKeys = []string{"internshipStartDate", "Start Date - Internship or Probation"}
	fullTimeStartKeys   = []string{"fullTimeStartDate", "startDate", "start_date", "Start Date - Full Time"}
	internshipEndKeys   = []string{"internshipEndDate", "End Date - Internship or Probation"}
	fullTimeEndKeys     = []string{"fullTimeEndDate", "endDate", "end_date", "End Date - Full Time"}
)

// Employee is a roster record. The typed fields are a read view; the raw
// document is authoritative for everything the leave engine does not own.
type Employee struct {
	ID         FlexID
	Name       string
	Email      string
	Status     string
	Department string
	Role       string
	Position   string

	// LeaveBalances is mutated exclusively by the balance calculator and
	// the recalculation service.
	LeaveBalances *Balances

	raw map[string]json.RawMessage
}

func (e *Employee) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.raw = raw

	e.ID = rawFlexID(raw, "id")
	if e.ID == "" {
		e.ID = rawFlexID(raw, "_id")
	}
	e.Name = rawString(raw, "name")
	e.Email = rawString(raw, "email")
	e.Status = rawString(raw, "status")
	e.Department = rawString(raw, "department")
	e.Role = rawString(raw, "role")
	e.Position = rawString(raw, "position")

	// A malformed legacy leaveBalances shape decodes to nil and gets
	// normalized on the next accrual run.
	if rawBalances, ok := raw["leaveBalances"]; ok {
		var balances Balances
		if err := json.Unmarshal(rawBalances, &balances); err == nil {
			e.LeaveBalances = &balances
		}
	}
	return nil
}

func (e Employee) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.raw)+2)
	for k, v := range e.raw {
		out[k] = v
	}
	if _, ok := out["id"]; !ok && e.ID != "" {
		idRaw, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		out["id"] = idRaw
	}
	if e.LeaveBalances != nil {
		balancesRaw, err := json.Marshal(e.LeaveBalances)
		if err != nil {
			return nil, err
		}
		out["leaveBalances"] = balancesRaw
	}
	return json.Marshal(out)
}

// NewEmployee builds a fresh employee document from caller-supplied fields.
// Used by the onboarding handler; imported employees arrive pre-shaped.
func NewEmployee(id string, fields map[string]any) (Employee, error) {
	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["id"] = id
	encoded, err := json.Marshal(doc)
	if err != nil {
		return Employee{}, err
	}
	var emp Employee
	if err := json.Unmarshal(encoded, &emp); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// Merge applies updates into the raw document, leaving leaveBalances alone.
// The raw map is copied before writing: employees taken from a shared
// snapshot can be merged without the snapshot seeing the change.
func (e *Employee) Merge(updates map[string]any) error {
	raw := make(map[string]json.RawMessage, len(e.raw)+len(updates))
	for k, v := range e.raw {
		raw[k] = v
	}
	for k, v := range updates {
		if k == "leaveBalances" || k == "id" || k == "_id" {
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw[k] = encoded
	}
	e.raw = raw
	// Refresh the typed view.
	full, err := json.Marshal(*e)
	if err != nil {
		return err
	}
	return e.Unmarshal(full)
}

// Unmarshal re-decodes the employee from raw bytes. Split out so Merge can
// refresh the typed view without shadowing the custom UnmarshalJSON.
func (e *Employee) Unmarshal(b []byte) error {
	return e.UnmarshalJSON(b)
}

// SetBalances stamps a freshly computed balances document on the employee.
func (e *Employee) SetBalances(b Balances) {
	e.LeaveBalances = &b
}

// Clone returns a copy with its own raw map and balances document, so
// mutations on the copy never reach the employee it was cloned from.
func (e Employee) Clone() Employee {
	out := e
	if e.raw != nil {
		out.raw = make(map[string]json.RawMessage, len(e.raw))
		for k, v := range e.raw {
			out.raw[k] = v
		}
	}
	if e.LeaveBalances != nil {
		balances := *e.LeaveBalances
		out.LeaveBalances = &balances
	}
	return out
}

// Entitlement resolves the yearly allocation for a leave type: a stored
// leaveBalances override wins, then the <type>LeaveEntitlement field, then
// the type default.
func (e *Employee) Entitlement(t Type) float64 {
	if v, ok := e.balancesAllocation(t); ok {
		return v
	}
	if v, ok := rawNumber(e.raw, string(t)+"LeaveEntitlement"); ok {
		return v
	}
	return DefaultEntitlement(t)
}

// balancesAllocation reads yearlyAllocation straight from the raw document
// so that presence (including an explicit zero) is distinguishable from the
// struct zero value.
func (e *Employee) balancesAllocation(t Type) (float64, bool) {
	rawBalances, ok := e.raw["leaveBalances"]
	if !ok {
		return 0, false
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(rawBalances, &entries); err != nil {
		return 0, false
	}
	rawEntry, ok := entries[string(t)]
	if !ok {
		return 0, false
	}
	var entry struct {
		YearlyAllocation *float64 `json:"yearlyAllocation"`
	}
	if err := json.Unmarshal(rawEntry, &entry); err != nil || entry.YearlyAllocation == nil {
		return 0, false
	}
	return *entry.YearlyAllocation, true
}

// =============================================================================
// LEAVE APPLICATION
// =============================================================================

// Application is a leave request. The calculator consumes approved
// applications read-only; only the approval workflow mutates status.
type Application struct {
	ID         FlexID
	EmployeeID FlexID
	Type       Type
	Status     string
	From       string
	To         string
	HalfDay    bool
	Reason     string
	AppliedAt  *time.Time

	raw map[string]json.RawMessage
}

// Approved reports whether this application counts toward taken leave.
func (a *Application) Approved() bool {
	return strings.EqualFold(strings.TrimSpace(a.Status), "approved")
}

func (a *Application) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.raw = raw

	a.ID = rawFlexID(raw, "id")
	if a.ID == "" {
		a.ID = rawFlexID(raw, "_id")
	}
	a.EmployeeID = rawFlexID(raw, "employeeId")
	a.Type = Type(strings.ToLower(rawString(raw, "type")))
	a.Status = rawString(raw, "status")
	a.From = rawString(raw, "from")
	a.To = rawString(raw, "to")
	a.Reason = rawString(raw, "reason")

	var halfDay bool
	if v, ok := raw["halfDay"]; ok {
		_ = json.Unmarshal(v, &halfDay)
	}
	a.HalfDay = halfDay

	if v, ok := raw["appliedAt"]; ok {
		var t time.Time
		if err := json.Unmarshal(v, &t); err == nil {
			a.AppliedAt = &t
		}
	}
	return nil
}

func (a Application) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.raw)+8)
	for k, v := range a.raw {
		out[k] = v
	}
	set := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		out[key] = encoded
		return nil
	}
	if err := set("id", a.ID); err != nil {
		return nil, err
	}
	if err := set("employeeId", a.EmployeeID); err != nil {
		return nil, err
	}
	if err := set("type", a.Type); err != nil {
		return nil, err
	}
	if err := set("status", a.Status); err != nil {
		return nil, err
	}
	if err := set("from", a.From); err != nil {
		return nil, err
	}
	if err := set("to", a.To); err != nil {
		return nil, err
	}
	if err := set("halfDay", a.HalfDay); err != nil {
		return nil, err
	}
	if a.Reason != "" {
		if err := set("reason", a.Reason); err != nil {
			return nil, err
		}
	}
	if a.AppliedAt != nil {
		if err := set("appliedAt", a.AppliedAt); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// =============================================================================
// HOLIDAY
// =============================================================================

// Holiday is a calendar date excluded from leave day counting. Stored either
// as a bare "YYYY-MM-DD" string or an object with a date field.
type Holiday struct {
	ID   FlexID `json:"id,omitempty"`
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

func (h *Holiday) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		h.Date = str
		return nil
	}
	type alias Holiday
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*h = Holiday(a)
	return nil
}

// HolidaySet indexes holiday dates for O(1) lookup during day counting.
func HolidaySet(holidays []Holiday) map[string]bool {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		if h.Date != "" {
			set[h.Date] = true
		}
	}
	return set
}

// =============================================================================
// RAW DOCUMENT HELPERS
// =============================================================================

func rawString(doc map[string]json.RawMessage, key string) string {
	v, ok := doc[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

func rawFlexID(doc map[string]json.RawMessage, key string) FlexID {
	v, ok := doc[key]
	if !ok {
		return ""
	}
	var id FlexID
	_ = id.UnmarshalJSON(v)
	return id
}

// rawNumber reads a numeric field, tolerating numeric strings from imports.
func rawNumber(doc map[string]json.RawMessage, key string) (float64, bool) {
	v, ok := doc[key]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
