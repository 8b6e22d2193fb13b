package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-clock/internal/store"
)

// AddFaceSample records a sample reference for an employee.
func (s *Store) AddFaceSample(ctx context.Context, employeeID int64, path string) error {
	query := "INSERT INTO face_samples (employee_id, path) VALUES ($1, $2)"
	if _, err := s.pool.Exec(ctx, query, employeeID, path); err != nil {
		return fmt.Errorf("insert face sample: %w", err)
	}
	return nil
}

// AllSamples returns every sample grouped by employee in employee name
// order. Training relies on this order being stable.
func (s *Store) AllSamples(ctx context.Context) ([]store.FaceSample, error) {
	query := `
		SELECT fs.id, fs.employee_id, fs.path, fs.created_at
		FROM face_samples fs
		JOIN employees e ON e.id = fs.employee_id
		ORDER BY e.name, e.id, fs.id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query face samples: %w", err)
	}
	defer rows.Close()

	var samples []store.FaceSample
	for rows.Next() {
		var sample store.FaceSample
		if err := rows.Scan(&sample.ID, &sample.EmployeeID, &sample.Path, &sample.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face sample: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face samples: %w", err)
	}
	return samples, nil
}

// LatestSample returns the most recent sample path, "" when none exist.
func (s *Store) LatestSample(ctx context.Context, employeeID int64) (string, error) {
	query := `
		SELECT path
		FROM face_samples
		WHERE employee_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	var path string
	err := s.pool.QueryRow(ctx, query, employeeID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query latest sample: %w", err)
	}
	return path, nil
}
