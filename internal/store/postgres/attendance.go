package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-clock/internal/store"
)

// actionColumns whitelists the column per action; the column name is
// interpolated into SQL, so it must never come from user input directly.
var actionColumns = map[store.Action]string{
	store.ActionTimeIn:     "time_in",
	store.ActionTimeOut:    "time_out",
	store.ActionStartBreak: "start_break",
	store.ActionStopBreak:  "stop_break",
}

// LogAttendance sets the action's field for the employee's day in one
// atomic statement. Two kiosks recognizing the same person race safely:
// the conditional upsert only fills a NULL field, so exactly one write
// wins and the loser gets the already-recorded outcome.
func (s *Store) LogAttendance(ctx context.Context, employeeID int64, action store.Action, ts time.Time) (bool, string, error) {
	column, ok := actionColumns[action]
	if !ok {
		return false, "", fmt.Errorf("unknown attendance action %q", action)
	}

	query := fmt.Sprintf(`
		INSERT INTO attendance (employee_id, day, %[1]s)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, day)
		DO UPDATE SET %[1]s = EXCLUDED.%[1]s
		WHERE attendance.%[1]s IS NULL
		RETURNING employee_id
	`, column)

	var id int64
	err := s.pool.QueryRow(ctx, query, employeeID, store.DayOf(ts), ts).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// The DO UPDATE WHERE clause filtered the row out: the field
		// was already set.
		return false, fmt.Sprintf("%s already recorded today.", action.Label()), nil
	}
	if err != nil {
		return false, "", fmt.Errorf("log attendance: %w", err)
	}
	return true, fmt.Sprintf("%s recorded.", action.Label()), nil
}

// DayStatus reports which fields are set for the employee on the day.
func (s *Store) DayStatus(ctx context.Context, employeeID int64, day time.Time) (store.DayStatus, error) {
	query := `
		SELECT time_in IS NOT NULL, time_out IS NOT NULL,
		       start_break IS NOT NULL, stop_break IS NOT NULL
		FROM attendance
		WHERE employee_id = $1 AND day = $2
	`

	var status store.DayStatus
	err := s.pool.QueryRow(ctx, query, employeeID, store.DayOf(day)).
		Scan(&status.HasTimeIn, &status.HasTimeOut, &status.HasStartBreak, &status.HasStopBreak)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DayStatus{}, nil
	}
	if err != nil {
		return store.DayStatus{}, fmt.Errorf("query day status: %w", err)
	}
	return status, nil
}

// History returns the employee's records for the last n days, newest first.
func (s *Store) History(ctx context.Context, employeeID int64, days int) ([]store.AttendanceRecord, error) {
	cutoff := store.DayOf(time.Now()).AddDate(0, 0, -(days - 1))
	query := `
		SELECT employee_id, day, time_in, time_out, start_break, stop_break
		FROM attendance
		WHERE employee_id = $1 AND day >= $2
		ORDER BY day DESC
	`

	rows, err := s.pool.Query(ctx, query, employeeID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query attendance history: %w", err)
	}
	defer rows.Close()

	var records []store.AttendanceRecord
	for rows.Next() {
		var rec store.AttendanceRecord
		if err := rows.Scan(&rec.EmployeeID, &rec.Day,
			&rec.TimeIn, &rec.TimeOut, &rec.StartBreak, &rec.StopBreak); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// EntriesForDay lists all records for one day joined with employee identity.
func (s *Store) EntriesForDay(ctx context.Context, day time.Time) ([]store.DayEntry, error) {
	query := `
		SELECT a.employee_id, a.day, a.time_in, a.time_out, a.start_break, a.stop_break,
		       e.code, e.name
		FROM attendance a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.day = $1
		ORDER BY e.name, e.id
	`

	rows, err := s.pool.Query(ctx, query, store.DayOf(day))
	if err != nil {
		return nil, fmt.Errorf("query day entries: %w", err)
	}
	defer rows.Close()

	var entries []store.DayEntry
	for rows.Next() {
		var entry store.DayEntry
		if err := rows.Scan(&entry.EmployeeID, &entry.Day,
			&entry.TimeIn, &entry.TimeOut, &entry.StartBreak, &entry.StopBreak,
			&entry.Code, &entry.Name); err != nil {
			return nil, fmt.Errorf("scan day entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day entries: %w", err)
	}
	return entries, nil
}

// StatsForDay counts recorded actions across all employees for one day.
func (s *Store) StatsForDay(ctx context.Context, day time.Time) (store.DayStats, error) {
	query := `
		SELECT COUNT(time_in), COUNT(time_out), COUNT(start_break), COUNT(stop_break)
		FROM attendance
		WHERE day = $1
	`

	var stats store.DayStats
	err := s.pool.QueryRow(ctx, query, store.DayOf(day)).
		Scan(&stats.TimeIn, &stats.TimeOut, &stats.StartBreak, &stats.StopBreak)
	if err != nil {
		return store.DayStats{}, fmt.Errorf("query day stats: %w", err)
	}
	return stats, nil
}
