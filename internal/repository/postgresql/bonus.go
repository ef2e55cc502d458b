package postgresql

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/database"
)

type bonusPolicy struct {
	db *database.DB
}

func NewBonusPolicy(db *database.DB) payroll.BonusPolicy {
	return &bonusPolicy{db: db}
}

// Extras sums the month's bonus calculations and the recurring components
// whose effective window overlaps the month.
func (r *bonusPolicy) Extras(ctx context.Context, employeeIDs []string, month, year int) (map[string]payroll.Extras, error) {
	extras := make(map[string]payroll.Extras, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return extras, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		WITH bonuses AS (
			SELECT employee_id, SUM(amount) AS bonus
			FROM bonus_calculations
			WHERE employee_id = ANY($1::uuid[]) AND month = $2 AND year = $3
			GROUP BY employee_id
		), components AS (
			SELECT employee_id,
				   SUM(amount) FILTER (WHERE type = 'allowance') AS allowances,
				   SUM(amount) FILTER (WHERE type = 'deduction') AS deductions
			FROM employee_payroll_components
			WHERE employee_id = ANY($1::uuid[])
			  AND effective_date < make_date($3, $2, 1) + INTERVAL '1 month'
			  AND (end_date IS NULL OR end_date >= make_date($3, $2, 1))
			GROUP BY employee_id
		)
		SELECT COALESCE(b.employee_id, c.employee_id),
			   COALESCE(c.allowances, 0),
			   COALESCE(c.deductions, 0),
			   COALESCE(b.bonus, 0)
		FROM bonuses b
		FULL OUTER JOIN components c ON c.employee_id = b.employee_id
	`

	rows, err := q.Query(ctx, query, employeeIDs, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll extras: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID string
		var allowances, deductions, bonus decimal.Decimal
		if err := rows.Scan(&employeeID, &allowances, &deductions, &bonus); err != nil {
			return nil, fmt.Errorf("failed to scan payroll extras: %w", err)
		}
		extras[employeeID] = payroll.Extras{
			EmployeeID:      employeeID,
			OtherAllowances: allowances,
			OtherDeductions: deductions,
			BonusAmount:     bonus,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll extras: %w", err)
	}

	return extras, nil
}
