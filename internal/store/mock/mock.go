// Package mock provides an in-memory store implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-clock/internal/store"
)

// MockStore is an in-memory implementation of store.Store.
type MockStore struct {
	mu         sync.RWMutex
	employees  map[int64]store.Employee
	samples    []store.FaceSample
	attendance map[string]*store.AttendanceRecord
	nextEmpID  int64
	nextSampID int64

	// Error injection
	AddEmployeeError   error
	GetEmployeeError   error
	UpdateError        error
	DeleteError        error
	ListError          error
	AddSampleError     error
	AllSamplesError    error
	LatestSampleError  error
	LogError           error
	DayStatusError     error
	HistoryError       error
	EntriesForDayError error
	StatsError         error
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		employees:  make(map[int64]store.Employee),
		attendance: make(map[string]*store.AttendanceRecord),
	}
}

func attendanceKey(employeeID int64, day time.Time) string {
	return fmt.Sprintf("%d|%s", employeeID, day.Format("2006-01-02"))
}

// AddEmployee creates an employee with a generated id and code.
func (m *MockStore) AddEmployee(ctx context.Context, name string) (store.Employee, error) {
	if m.AddEmployeeError != nil {
		return store.Employee{}, m.AddEmployeeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEmpID++
	emp := store.Employee{
		ID:        m.nextEmpID,
		Code:      fmt.Sprintf("EMP-%03d", m.nextEmpID),
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.employees[emp.ID] = emp
	return emp, nil
}

// GetEmployeeByID returns nil when the employee does not exist.
func (m *MockStore) GetEmployeeByID(ctx context.Context, id int64) (*store.Employee, error) {
	if m.GetEmployeeError != nil {
		return nil, m.GetEmployeeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

// UpdateEmployeeName changes an employee's display name.
func (m *MockStore) UpdateEmployeeName(ctx context.Context, id int64, name string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return fmt.Errorf("employee %d not found", id)
	}
	emp.Name = name
	m.employees[id] = emp
	return nil
}

// DeleteEmployee removes the employee with its samples and attendance.
func (m *MockStore) DeleteEmployee(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, id)

	kept := m.samples[:0]
	for _, s := range m.samples {
		if s.EmployeeID != id {
			kept = append(kept, s)
		}
	}
	m.samples = kept

	for key, rec := range m.attendance {
		if rec.EmployeeID == id {
			delete(m.attendance, key)
		}
	}
	return nil
}

// ListEmployees returns employees ordered by name, optionally filtered.
func (m *MockStore) ListEmployees(ctx context.Context, search string) ([]store.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	folded := store.FoldSearch(search)
	var result []store.Employee
	for _, emp := range m.employees {
		if store.MatchesSearch(emp, folded) {
			result = append(result, emp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// AddFaceSample records a sample reference for an employee.
func (m *MockStore) AddFaceSample(ctx context.Context, employeeID int64, path string) error {
	if m.AddSampleError != nil {
		return m.AddSampleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSampID++
	m.samples = append(m.samples, store.FaceSample{
		ID:         m.nextSampID,
		EmployeeID: employeeID,
		Path:       path,
		CreatedAt:  time.Now(),
	})
	return nil
}

// AllSamples returns every sample grouped by employee in name order.
func (m *MockStore) AllSamples(ctx context.Context) ([]store.FaceSample, error) {
	if m.AllSamplesError != nil {
		return nil, m.AllSamplesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]store.FaceSample, len(m.samples))
	copy(result, m.samples)
	sort.SliceStable(result, func(i, j int) bool {
		ni := m.employees[result[i].EmployeeID].Name
		nj := m.employees[result[j].EmployeeID].Name
		if ni != nj {
			return ni < nj
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// LatestSample returns the most recent sample path, "" when none exist.
func (m *MockStore) LatestSample(ctx context.Context, employeeID int64) (string, error) {
	if m.LatestSampleError != nil {
		return "", m.LatestSampleError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := ""
	var latestID int64 = -1
	for _, s := range m.samples {
		if s.EmployeeID == employeeID && s.ID > latestID {
			latest = s.Path
			latestID = s.ID
		}
	}
	return latest, nil
}

// LogAttendance is an atomic set-if-null on the field for the action.
func (m *MockStore) LogAttendance(ctx context.Context, employeeID int64, action store.Action, ts time.Time) (bool, string, error) {
	if m.LogError != nil {
		return false, "", m.LogError
	}
	if !action.Valid() {
		return false, "", fmt.Errorf("unknown attendance action %q", action)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	day := store.DayOf(ts)
	key := attendanceKey(employeeID, day)
	rec, ok := m.attendance[key]
	if !ok {
		rec = &store.AttendanceRecord{EmployeeID: employeeID, Day: day}
		m.attendance[key] = rec
	}

	field := fieldFor(rec, action)
	if *field != nil {
		return false, fmt.Sprintf("%s already recorded today.", action.Label()), nil
	}
	stamp := ts
	*field = &stamp
	return true, fmt.Sprintf("%s recorded.", action.Label()), nil
}

func fieldFor(rec *store.AttendanceRecord, action store.Action) **time.Time {
	switch action {
	case store.ActionTimeIn:
		return &rec.TimeIn
	case store.ActionTimeOut:
		return &rec.TimeOut
	case store.ActionStartBreak:
		return &rec.StartBreak
	}
	return &rec.StopBreak
}

// DayStatus reports which fields are set for the employee on the day.
func (m *MockStore) DayStatus(ctx context.Context, employeeID int64, day time.Time) (store.DayStatus, error) {
	if m.DayStatusError != nil {
		return store.DayStatus{}, m.DayStatusError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.attendance[attendanceKey(employeeID, store.DayOf(day))]
	if !ok {
		return store.DayStatus{}, nil
	}
	return store.DayStatus{
		HasTimeIn:     rec.TimeIn != nil,
		HasTimeOut:    rec.TimeOut != nil,
		HasStartBreak: rec.StartBreak != nil,
		HasStopBreak:  rec.StopBreak != nil,
	}, nil
}

// History returns the employee's records for the last n days, newest first.
func (m *MockStore) History(ctx context.Context, employeeID int64, days int) ([]store.AttendanceRecord, error) {
	if m.HistoryError != nil {
		return nil, m.HistoryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := store.DayOf(time.Now()).AddDate(0, 0, -(days - 1))
	var result []store.AttendanceRecord
	for _, rec := range m.attendance {
		if rec.EmployeeID == employeeID && !rec.Day.Before(cutoff) {
			result = append(result, *rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day.After(result[j].Day)
	})
	return result, nil
}

// EntriesForDay lists all records for one day with employee identity.
func (m *MockStore) EntriesForDay(ctx context.Context, day time.Time) ([]store.DayEntry, error) {
	if m.EntriesForDayError != nil {
		return nil, m.EntriesForDayError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	target := store.DayOf(day)
	var result []store.DayEntry
	for _, rec := range m.attendance {
		if !rec.Day.Equal(target) {
			continue
		}
		emp := m.employees[rec.EmployeeID]
		result = append(result, store.DayEntry{
			AttendanceRecord: *rec,
			Code:             emp.Code,
			Name:             emp.Name,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// StatsForDay counts recorded actions across all employees for one day.
func (m *MockStore) StatsForDay(ctx context.Context, day time.Time) (store.DayStats, error) {
	if m.StatsError != nil {
		return store.DayStats{}, m.StatsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	target := store.DayOf(day)
	var stats store.DayStats
	for _, rec := range m.attendance {
		if !rec.Day.Equal(target) {
			continue
		}
		if rec.TimeIn != nil {
			stats.TimeIn++
		}
		if rec.TimeOut != nil {
			stats.TimeOut++
		}
		if rec.StartBreak != nil {
			stats.StartBreak++
		}
		if rec.StopBreak != nil {
			stats.StopBreak++
		}
	}
	return stats, nil
}
