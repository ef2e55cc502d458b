package postgresql

import (
	"context"
	"fmt"

	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/database"
)

type attendanceLedger struct {
	db *database.DB
}

func NewAttendanceLedger(db *database.DB) payroll.AttendanceLedger {
	return &attendanceLedger{db: db}
}

// Facts counts attendance rows by status for each employee over the calendar month.
func (r *attendanceLedger) Facts(ctx context.Context, employeeIDs []string, month, year int) (map[string]payroll.AttendanceFacts, error) {
	facts := make(map[string]payroll.AttendanceFacts, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return facts, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id,
			   COUNT(*) FILTER (WHERE status = $4)::INT,
			   COUNT(*) FILTER (WHERE status = $5)::INT,
			   COUNT(*) FILTER (WHERE status = $6)::INT,
			   COUNT(*) FILTER (WHERE status = $7)::INT
		FROM attendances
		WHERE employee_id = ANY($1::uuid[])
		  AND date >= make_date($3, $2, 1)
		  AND date < make_date($3, $2, 1) + INTERVAL '1 month'
		GROUP BY employee_id
	`

	rows, err := q.Query(ctx, query, employeeIDs, month, year,
		string(payroll.AttendanceStatusPresent),
		string(payroll.AttendanceStatusAbsent),
		string(payroll.AttendanceStatusLeave),
		string(payroll.AttendanceStatusHalfDay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance facts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f payroll.AttendanceFacts
		if err := rows.Scan(&f.EmployeeID, &f.DaysPresent, &f.DaysAbsent, &f.DaysOnLeave, &f.DaysHalf); err != nil {
			return nil, fmt.Errorf("failed to scan attendance facts: %w", err)
		}
		facts[f.EmployeeID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance facts: %w", err)
	}

	return facts, nil
}
