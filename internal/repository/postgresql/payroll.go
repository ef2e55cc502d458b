package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/database"
)

type payrunRepository struct {
	db *database.DB
}

func NewPayrunRepository(db *database.DB) payroll.PayrunRepository {
	return &payrunRepository{db: db}
}

const payrunColumns = `
	id, month, year, status, total_employees, total_gross_salary,
	total_deductions, total_net_salary, created_at, updated_at, finalized_at
`

func scanPayrun(row pgx.Row) (payroll.Payrun, error) {
	var p payroll.Payrun
	err := row.Scan(
		&p.ID, &p.Month, &p.Year, &p.Status, &p.TotalEmployees, &p.TotalGrossSalary,
		&p.TotalDeductions, &p.TotalNetSalary, &p.CreatedAt, &p.UpdatedAt, &p.FinalizedAt,
	)
	return p, err
}

// ========== PAYRUNS ==========

// EnsurePayrun returns the id of the payrun for the period, creating a draft if none exists.
func (r *payrunRepository) EnsurePayrun(ctx context.Context, month, year int) (string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payruns (month, year, status)
		VALUES ($1, $2, 'draft')
		ON CONFLICT (month, year) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, month, year); err != nil {
		return "", fmt.Errorf("failed to create payrun: %w", err)
	}

	var id string
	err := q.QueryRow(ctx, `SELECT id FROM payruns WHERE month = $1 AND year = $2`, month, year).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to get payrun id: %w", err)
	}

	return id, nil
}

// LockPayrun takes the row lock without waiting; a held lock yields ErrConcurrencyConflict.
func (r *payrunRepository) LockPayrun(ctx context.Context, id string) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrunColumns + ` FROM payruns WHERE id = $1 FOR UPDATE NOWAIT`

	p, err := scanPayrun(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payrun{}, payroll.ErrPayrunNotFound
		}
		if pgErrorCode(err) == pgLockNotAvailable {
			return payroll.Payrun{}, payroll.ErrConcurrencyConflict
		}
		return payroll.Payrun{}, fmt.Errorf("failed to lock payrun: %w", err)
	}

	return p, nil
}

func (r *payrunRepository) GetPayrunByID(ctx context.Context, id string) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrunColumns + ` FROM payruns WHERE id = $1`

	p, err := scanPayrun(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payrun{}, payroll.ErrPayrunNotFound
		}
		return payroll.Payrun{}, fmt.Errorf("failed to get payrun: %w", err)
	}

	return p, nil
}

func (r *payrunRepository) ListPayruns(ctx context.Context, filter payroll.PayrunFilter) ([]payroll.Payrun, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM payruns WHERE 1 = 1`
	args := []interface{}{}
	argIdx := 1

	if filter.Month != nil {
		baseQuery += fmt.Sprintf(" AND month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		baseQuery += fmt.Sprintf(" AND year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payruns: %w", err)
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY year DESC, month DESC LIMIT $%d OFFSET $%d`,
		payrunColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payruns: %w", err)
	}
	defer rows.Close()

	var payruns []payroll.Payrun
	for rows.Next() {
		p, err := scanPayrun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payrun: %w", err)
		}
		payruns = append(payruns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payruns: %w", err)
	}

	return payruns, totalCount, nil
}

func (r *payrunRepository) UpdatePayrunStatus(ctx context.Context, id string, status payroll.PayrunStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE payruns SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payrun status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrunNotFound
	}

	return nil
}

func (r *payrunRepository) MarkPayrunFinalized(ctx context.Context, id string, finalizedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payruns
		SET status = 'finalized', finalized_at = $2, updated_at = $2
		WHERE id = $1 AND status <> 'finalized'
	`
	tag, err := q.Exec(ctx, query, id, finalizedAt)
	if err != nil {
		return fmt.Errorf("failed to finalize payrun: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrAlreadyFinalized
	}

	return nil
}

// RecomputeTotals re-derives the payrun aggregates from its payslips in a single statement.
func (r *payrunRepository) RecomputeTotals(ctx context.Context, id string) (payroll.Payrun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payruns p
		SET total_employees = agg.cnt,
			total_gross_salary = agg.gross,
			total_deductions = agg.deductions,
			total_net_salary = agg.net,
			updated_at = NOW()
		FROM (
			SELECT COUNT(*)::INT AS cnt,
				   COALESCE(SUM(gross_salary), 0) AS gross,
				   COALESCE(SUM(total_deductions), 0) AS deductions,
				   COALESCE(SUM(net_salary), 0) AS net
			FROM payslips
			WHERE payrun_id = $1
		) agg
		WHERE p.id = $1
		RETURNING p.id, p.month, p.year, p.status, p.total_employees, p.total_gross_salary,
			p.total_deductions, p.total_net_salary, p.created_at, p.updated_at, p.finalized_at
	`

	p, err := scanPayrun(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payrun{}, payroll.ErrPayrunNotFound
		}
		return payroll.Payrun{}, fmt.Errorf("failed to recompute payrun totals: %w", err)
	}

	return p, nil
}

func (r *payrunRepository) DeletePayrun(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	// EXISTS reads the statement snapshot, so it still sees a row the CTE removed.
	query := `
		WITH deleted AS (
			DELETE FROM payruns WHERE id = $1 AND status <> 'finalized' RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM deleted), EXISTS (SELECT 1 FROM payruns WHERE id = $1)
	`

	var deleted int
	var exists bool
	if err := q.QueryRow(ctx, query, id).Scan(&deleted, &exists); err != nil {
		return fmt.Errorf("failed to delete payrun: %w", err)
	}
	if deleted == 0 {
		if exists {
			return payroll.ErrAlreadyFinalized
		}
		return payroll.ErrPayrunNotFound
	}

	return nil
}

// ========== PAYSLIPS ==========

const payslipSelect = `
	SELECT ps.id, ps.payrun_id, ps.employee_id,
		   ps.basic_salary, ps.hra_percentage, ps.da_percentage, ps.hra, ps.da,
		   ps.other_allowances, ps.bonus_amount, ps.absence_deduction, ps.gross_salary,
		   ps.pf_deduction, ps.professional_tax, ps.other_deductions, ps.total_deductions,
		   ps.net_salary, ps.working_days, ps.days_worked, ps.leaves_taken,
		   ps.fingerprint, ps.status, ps.created_at, ps.updated_at,
		   pr.month, pr.year, e.full_name, e.email, e.designation, e.department
	FROM payslips ps
	JOIN payruns pr ON pr.id = ps.payrun_id
	JOIN employees e ON e.id = ps.employee_id
`

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	err := row.Scan(
		&p.ID, &p.PayrunID, &p.EmployeeID,
		&p.BasicSalary, &p.HRAPercentage, &p.DAPercentage, &p.HRA, &p.DA,
		&p.OtherAllowances, &p.BonusAmount, &p.AbsenceDeduction, &p.GrossSalary,
		&p.PFDeduction, &p.ProfessionalTax, &p.OtherDeductions, &p.TotalDeductions,
		&p.NetSalary, &p.WorkingDays, &p.DaysWorked, &p.LeavesTaken,
		&p.Fingerprint, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&p.Month, &p.Year, &p.EmployeeName, &p.EmployeeEmail, &p.Designation, &p.Department,
	)
	return p, err
}

func collectPayslips(rows pgx.Rows) ([]payroll.Payslip, error) {
	defer rows.Close()

	var payslips []payroll.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslips: %w", err)
	}

	return payslips, nil
}

func (r *payrunRepository) ListPayslipEmployeeIDs(ctx context.Context, payrunID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT employee_id FROM payslips WHERE payrun_id = $1`, payrunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip employees: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan payslip employees: %w", err)
	}

	return ids, nil
}

func (r *payrunRepository) CreatePayslip(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslips (
			payrun_id, employee_id, basic_salary, hra_percentage, da_percentage, hra, da,
			other_allowances, bonus_amount, absence_deduction, gross_salary,
			pf_deduction, professional_tax, other_deductions, total_deductions, net_salary,
			working_days, days_worked, leaves_taken, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 'draft')
		ON CONFLICT (payrun_id, employee_id) DO NOTHING
		RETURNING id, status, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.PayrunID, p.EmployeeID, p.BasicSalary, p.HRAPercentage, p.DAPercentage, p.HRA, p.DA,
		p.OtherAllowances, p.BonusAmount, p.AbsenceDeduction, p.GrossSalary,
		p.PFDeduction, p.ProfessionalTax, p.OtherDeductions, p.TotalDeductions, p.NetSalary,
		p.WorkingDays, p.DaysWorked, p.LeavesTaken,
	).Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		// A conflicting row yields no RETURNING row and leaves the transaction usable.
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipExists
		}
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	return p, nil
}

func (r *payrunRepository) GetPayslipByID(ctx context.Context, id string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayslip(q.QueryRow(ctx, payslipSelect+` WHERE ps.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return p, nil
}

func (r *payrunRepository) GetPayslipByEmployee(ctx context.Context, payrunID, employeeID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := payslipSelect + ` WHERE ps.payrun_id = $1 AND ps.employee_id = $2`

	p, err := scanPayslip(q.QueryRow(ctx, query, payrunID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return p, nil
}

func (r *payrunRepository) ListPayslipsByPayrun(ctx context.Context, payrunID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, payslipSelect+` WHERE ps.payrun_id = $1 ORDER BY e.full_name, ps.employee_id`, payrunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}

	return collectPayslips(rows)
}

func (r *payrunRepository) ListPayslipsByEmployee(ctx context.Context, employeeID string, filter payroll.EmployeePayslipFilter) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := payslipSelect + ` WHERE ps.employee_id = $1`
	args := []interface{}{employeeID}
	argIdx := 2

	if filter.Month != nil {
		query += fmt.Sprintf(" AND pr.month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		query += fmt.Sprintf(" AND pr.year = $%d", argIdx)
		args = append(args, *filter.Year)
	}
	query += ` ORDER BY pr.year DESC, pr.month DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee payslips: %w", err)
	}

	return collectPayslips(rows)
}

// UpdatePayslipAmounts rewrites the monetary fields of a draft payslip.
func (r *payrunRepository) UpdatePayslipAmounts(ctx context.Context, p payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips
		SET other_allowances = $2, bonus_amount = $3, absence_deduction = $4, gross_salary = $5,
			pf_deduction = $6, professional_tax = $7, other_deductions = $8,
			total_deductions = $9, net_salary = $10, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`
	tag, err := q.Exec(ctx, query,
		p.ID, p.OtherAllowances, p.BonusAmount, p.AbsenceDeduction, p.GrossSalary,
		p.PFDeduction, p.ProfessionalTax, p.OtherDeductions,
		p.TotalDeductions, p.NetSalary,
	)
	if err != nil {
		return fmt.Errorf("failed to update payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipFinalized
	}

	return nil
}

func (r *payrunRepository) FinalizePayslip(ctx context.Context, id string, fingerprint string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips
		SET fingerprint = $2, status = 'finalized', updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`
	tag, err := q.Exec(ctx, query, id, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to finalize payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipFinalized
	}

	return nil
}
