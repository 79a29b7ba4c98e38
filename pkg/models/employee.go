package models

import "strings"

// OutreachDepartment is the department permitted to manage organisations.
const OutreachDepartment = "Outreach"

// Employee is a registered directory entry. Only registered employees may log
// in, and only Outreach employees may reach the organisation operations.
type Employee struct {
	EmployeeID     int64  `json:"id" db:"employee_id"`
	FirstName      string `json:"firstName" db:"first_name"`
	LastName       string `json:"lastName" db:"last_name"`
	Email          string `json:"email" db:"email"`
	Title          string `json:"title,omitempty" db:"title"`
	Department     string `json:"department,omitempty" db:"department"`
	PhotographPath string `json:"photographPath,omitempty" db:"photograph_path"`
	PasswordHash   string `json:"-" db:"password_hash"`
}

// IsOutreach reports whether the employee belongs to the Outreach department.
func (e *Employee) IsOutreach() bool {
	return strings.EqualFold(e.Department, OutreachDepartment)
}
