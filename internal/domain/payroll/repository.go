package payroll

import (
	"context"
	"time"
)

// Transactor runs fn inside a single database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EmployeeDirectory provides the employees a payrun is computed for.
type EmployeeDirectory interface {
	// ListEligible returns active employees with a positive basic salary,
	// restricted to ids when ids is non-empty.
	ListEligible(ctx context.Context, ids []string) ([]Employee, error)
}

type AttendanceLedger interface {
	// Facts returns per-employee attendance counts for the month, keyed by employee id.
	// Employees without rows are absent from the map.
	Facts(ctx context.Context, employeeIDs []string, month, year int) (map[string]AttendanceFacts, error)
}

type BonusPolicy interface {
	// Extras returns bonuses and recurring components effective in the month, keyed by employee id.
	Extras(ctx context.Context, employeeIDs []string, month, year int) (map[string]Extras, error)
}

type PayrunRepository interface {
	// Payruns
	EnsurePayrun(ctx context.Context, month, year int) (string, error)
	LockPayrun(ctx context.Context, id string) (Payrun, error)
	GetPayrunByID(ctx context.Context, id string) (Payrun, error)
	ListPayruns(ctx context.Context, filter PayrunFilter) ([]Payrun, int64, error)
	UpdatePayrunStatus(ctx context.Context, id string, status PayrunStatus) error
	MarkPayrunFinalized(ctx context.Context, id string, finalizedAt time.Time) error
	RecomputeTotals(ctx context.Context, id string) (Payrun, error)
	DeletePayrun(ctx context.Context, id string) error

	// Payslips
	ListPayslipEmployeeIDs(ctx context.Context, payrunID string) ([]string, error)
	CreatePayslip(ctx context.Context, payslip Payslip) (Payslip, error)
	GetPayslipByID(ctx context.Context, id string) (Payslip, error)
	GetPayslipByEmployee(ctx context.Context, payrunID, employeeID string) (Payslip, error)
	ListPayslipsByPayrun(ctx context.Context, payrunID string) ([]Payslip, error)
	ListPayslipsByEmployee(ctx context.Context, employeeID string, filter EmployeePayslipFilter) ([]Payslip, error)
	UpdatePayslipAmounts(ctx context.Context, payslip Payslip) error
	FinalizePayslip(ctx context.Context, id string, fingerprint string) error
}
