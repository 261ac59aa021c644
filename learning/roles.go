package learning

import (
	"strings"
	"time"

	"github.com/brillar/hr-portal/leave"
)

// Roles allowed to write learning hub content.
var hrLearningRoles = map[string]bool{
	"hr":                     true,
	"human resources":        true,
	"l&d":                    true,
	"ld":                     true,
	"lnd":                    true,
	"learning and development": true,
	"learning & development":   true,
}

// Roles allowed to read progress in addition to the learning roles.
var managerRoles = map[string]bool{
	"manager":    true,
	"superadmin": true,
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// CanWrite reports whether a caller role may modify learning hub content.
func CanWrite(role string) bool {
	return hrLearningRoles[normalizeRole(role)]
}

// CanReadProgress reports whether a caller role may read progress records.
func CanReadProgress(role string) bool {
	r := normalizeRole(role)
	return hrLearningRoles[r] || managerRoles[r]
}

// =============================================================================
// ROLE ASSIGNMENT SYNC
// =============================================================================

// SyncRoleAssignments reconciles role-wide course assignments against the
// roster: every employee whose role matches a role assignment gets a
// derived employee assignment for that course. Existing assignments are
// kept; only the missing derived rows are returned for upsert.
func SyncRoleAssignments(assignments []CourseAssignment, employees []leave.Employee, newID func() string) []CourseAssignment {
	type key struct{ courseID, employeeID string }
	existing := make(map[key]bool)
	var roleRules []CourseAssignment
	for _, a := range assignments {
		switch a.AssignmentType {
		case AssignEmployee:
			existing[key{a.CourseID, a.EmployeeID}] = true
		case AssignRole:
			roleRules = append(roleRules, a)
		}
	}

	now := time.Now()
	var derived []CourseAssignment
	for _, rule := range roleRules {
		for _, emp := range employees {
			if normalizeRole(emp.Role) != rule.Role {
				continue
			}
			employeeID := string(emp.ID)
			if employeeID == "" || existing[key{rule.CourseID, employeeID}] {
				continue
			}
			existing[key{rule.CourseID, employeeID}] = true
			derived = append(derived, CourseAssignment{
				ID:             newID(),
				CourseID:       rule.CourseID,
				AssignmentType: AssignEmployee,
				Role:           rule.Role,
				EmployeeID:     employeeID,
				AssignedBy:     rule.AssignedBy,
				CreatedAt:      now,
			})
		}
	}
	return derived
}
