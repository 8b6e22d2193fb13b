package store

import "time"

// Employee is a person enrolled in the clock.
type Employee struct {
	ID        int64
	Code      string // short display code, e.g. EMP-007
	Name      string
	CreatedAt time.Time
}

// FaceSample points at one stored, size-normalized grayscale face image.
// Samples are training input only and are never mutated after creation.
type FaceSample struct {
	ID         int64
	EmployeeID int64
	Path       string
	CreatedAt  time.Time
}

// Action is one of the four attendance events a day can carry.
type Action string

const (
	ActionTimeIn     Action = "time_in"
	ActionTimeOut    Action = "time_out"
	ActionStartBreak Action = "start_break"
	ActionStopBreak  Action = "stop_break"
)

// Valid reports whether a is one of the four known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionTimeIn, ActionTimeOut, ActionStartBreak, ActionStopBreak:
		return true
	}
	return false
}

// Label returns the human-readable form of the action.
func (a Action) Label() string {
	switch a {
	case ActionTimeIn:
		return "Time In"
	case ActionTimeOut:
		return "Time Out"
	case ActionStartBreak:
		return "Start Break"
	case ActionStopBreak:
		return "Stop Break"
	}
	return string(a)
}

// DayStatus reports which attendance fields are already set for one
// (employee, day) pair.
type DayStatus struct {
	HasTimeIn     bool `json:"has_time_in"`
	HasTimeOut    bool `json:"has_time_out"`
	HasStartBreak bool `json:"has_start_break"`
	HasStopBreak  bool `json:"has_stop_break"`
}

// Has reports whether the field for the given action is already set.
func (s DayStatus) Has(a Action) bool {
	switch a {
	case ActionTimeIn:
		return s.HasTimeIn
	case ActionTimeOut:
		return s.HasTimeOut
	case ActionStartBreak:
		return s.HasStartBreak
	case ActionStopBreak:
		return s.HasStopBreak
	}
	return false
}

// AttendanceRecord is one row per (employee, calendar day). A field, once
// set, is never overwritten for that day.
type AttendanceRecord struct {
	EmployeeID int64
	Day        time.Time // date only, midnight local
	TimeIn     *time.Time
	TimeOut    *time.Time
	StartBreak *time.Time
	StopBreak  *time.Time
}

// DayEntry is an attendance record joined with employee identity for
// day listings.
type DayEntry struct {
	AttendanceRecord
	Code string
	Name string
}

// DayStats holds per-action counts across all employees for one day.
type DayStats struct {
	TimeIn     int `json:"time_in"`
	TimeOut    int `json:"time_out"`
	StartBreak int `json:"start_break"`
	StopBreak  int `json:"stop_break"`
}
