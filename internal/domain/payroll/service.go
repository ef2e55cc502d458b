package payroll

import "context"

type PayrollService interface {
	// Payruns
	GeneratePayroll(ctx context.Context, req GeneratePayrollRequest) (GeneratePayrollResponse, error)
	FinalizePayrun(ctx context.Context, payrunID string) (FinalizePayrunResponse, error)
	GetPayrun(ctx context.Context, id string) (PayrunResponse, error)
	ListPayruns(ctx context.Context, filter PayrunFilter) (ListPayrunResponse, error)
	DeletePayrun(ctx context.Context, id string) error

	// Payslips
	GetPayslip(ctx context.Context, payrunID, employeeID string) (PayslipResponse, error)
	GetPayslipByID(ctx context.Context, id string) (PayslipResponse, error)
	ListPayslips(ctx context.Context, payrunID string) ([]PayslipResponse, error)
	ListEmployeePayslips(ctx context.Context, employeeID string, filter EmployeePayslipFilter) ([]PayslipResponse, error)
	UpdatePayslip(ctx context.Context, req UpdatePayslipRequest) (PayslipResponse, error)
	VerifyPayslip(ctx context.Context, id string) (VerifyPayslipResponse, error)
	RenderPayslipPDF(ctx context.Context, id string) (PayslipDocument, error)
}

// PayslipRenderer turns a finalized payslip into a printable document.
type PayslipRenderer interface {
	Render(payslip Payslip, currency string) ([]byte, error)
}
