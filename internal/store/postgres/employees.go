package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-clock/internal/store"
)

// escapeLike makes a search term safe for use inside a LIKE pattern so
// that % and _ match literally, as they do in the in-memory store.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// AddEmployee creates an employee; id and code come back from the database.
func (s *Store) AddEmployee(ctx context.Context, name string) (store.Employee, error) {
	query := `
		INSERT INTO employees (name)
		VALUES ($1)
		RETURNING id, code, name, created_at
	`

	var emp store.Employee
	err := s.pool.QueryRow(ctx, query, name).
		Scan(&emp.ID, &emp.Code, &emp.Name, &emp.CreatedAt)
	if err != nil {
		return store.Employee{}, fmt.Errorf("insert employee: %w", err)
	}
	return emp, nil
}

// GetEmployeeByID returns nil without error when the employee does not exist.
func (s *Store) GetEmployeeByID(ctx context.Context, id int64) (*store.Employee, error) {
	query := `
		SELECT id, code, name, created_at
		FROM employees
		WHERE id = $1
	`

	var emp store.Employee
	err := s.pool.QueryRow(ctx, query, id).
		Scan(&emp.ID, &emp.Code, &emp.Name, &emp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}
	return &emp, nil
}

// UpdateEmployeeName changes the display name.
func (s *Store) UpdateEmployeeName(ctx context.Context, id int64, name string) error {
	result, err := s.pool.Exec(ctx, "UPDATE employees SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %d not found", id)
	}
	return nil
}

// DeleteEmployee removes the employee; samples and attendance cascade.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return nil
}

// ListEmployees returns employees in name order, filtered by an optional
// search term matched case- and diacritic-insensitively against name
// and code.
func (s *Store) ListEmployees(ctx context.Context, search string) ([]store.Employee, error) {
	query := `
		SELECT id, code, name, created_at
		FROM employees
		WHERE $1 = ''
		   OR LOWER(unaccent(name)) LIKE '%' || $1 || '%'
		   OR LOWER(unaccent(code)) LIKE '%' || $1 || '%'
		ORDER BY name, id
	`

	rows, err := s.pool.Query(ctx, query, escapeLike(store.FoldSearch(search)))
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []store.Employee
	for rows.Next() {
		var emp store.Employee
		if err := rows.Scan(&emp.ID, &emp.Code, &emp.Name, &emp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}
