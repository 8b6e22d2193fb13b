// Package store defines the persistence contract for employees, face
// samples, and attendance records. Implementations live in subpackages;
// everything above this layer depends only on the interfaces.
package store

import (
	"context"
	"time"
)

// EmployeeStore manages employee identities.
type EmployeeStore interface {
	// AddEmployee creates an employee and returns it with id and code set.
	AddEmployee(ctx context.Context, name string) (Employee, error)
	// GetEmployeeByID returns nil (no error) when the employee does not exist.
	GetEmployeeByID(ctx context.Context, id int64) (*Employee, error)
	// UpdateEmployeeName changes the display name.
	UpdateEmployeeName(ctx context.Context, id int64, name string) error
	// DeleteEmployee removes the employee, cascading samples and
	// attendance history.
	DeleteEmployee(ctx context.Context, id int64) error
	// ListEmployees returns employees ordered by name. A non-empty search
	// term filters by name or code, case- and diacritic-insensitively.
	ListEmployees(ctx context.Context, search string) ([]Employee, error)
}

// SampleStore manages face sample references.
type SampleStore interface {
	AddFaceSample(ctx context.Context, employeeID int64, path string) error
	// AllSamples returns every stored sample grouped by employee, in
	// employee name order. This is the training enumeration order: label
	// assignment depends on it being stable.
	AllSamples(ctx context.Context) ([]FaceSample, error)
	// LatestSample returns the most recent sample path for an employee,
	// or "" when none exist.
	LatestSample(ctx context.Context, employeeID int64) (string, error)
}

// AttendanceStore records daily attendance events.
type AttendanceStore interface {
	// LogAttendance sets the field for action on the (employee, day-of-ts)
	// row, creating the row if needed. The write is an atomic set-if-null:
	// if the field is already set it returns ok=false with a human
	// message and leaves the stored value untouched.
	LogAttendance(ctx context.Context, employeeID int64, action Action, ts time.Time) (ok bool, message string, err error)
	// DayStatus reports which fields are set for the employee on the
	// given day.
	DayStatus(ctx context.Context, employeeID int64, day time.Time) (DayStatus, error)
	// History returns the employee's records for the last n days, newest
	// first.
	History(ctx context.Context, employeeID int64, days int) ([]AttendanceRecord, error)
	// EntriesForDay lists all records for one day joined with employee
	// identity, newest first.
	EntriesForDay(ctx context.Context, day time.Time) ([]DayEntry, error)
	// StatsForDay counts recorded actions across all employees for one day.
	StatsForDay(ctx context.Context, day time.Time) (DayStats, error)
}

// Store is the full persistence surface consumed by the services.
type Store interface {
	EmployeeStore
	SampleStore
	AttendanceStore
}
