package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/database"
)

type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) payroll.EmployeeDirectory {
	return &employeeDirectory{db: db}
}

const employeeColumns = `
	id, full_name, email, role, designation, department, is_active,
	basic_salary, hra_percentage, da_percentage, working_days_standard,
	created_at, updated_at
`

func scanEmployee(row pgx.Row) (payroll.Employee, error) {
	var e payroll.Employee
	err := row.Scan(
		&e.ID, &e.FullName, &e.Email, &e.Role, &e.Designation, &e.Department, &e.IsActive,
		&e.BasicSalary, &e.HRAPercentage, &e.DAPercentage, &e.WorkingDaysStandard,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// ListEligible returns active salaried employees ordered by id so batches are deterministic.
func (r *employeeDirectory) ListEligible(ctx context.Context, ids []string) ([]payroll.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE is_active = TRUE AND role = 'employee' AND basic_salary > 0`
	args := []interface{}{}
	if len(ids) > 0 {
		query += ` AND id = ANY($1::uuid[])`
		args = append(args, ids)
	}
	query += ` ORDER BY id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}
