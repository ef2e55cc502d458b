package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/workzen/hrms-backend-go/internal/pkg/validator"
)

const (
	MinPayrunYear = 2000
	MaxPayrunYear = 2100
)

func validatePeriod(month, year int, errs validator.ValidationErrors) validator.ValidationErrors {
	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if year < MinPayrunYear || year > MaxPayrunYear {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	return errs
}

// ========== PAYRUN DTOs ==========

type GeneratePayrollRequest struct {
	Month       int      `json:"month"`
	Year        int      `json:"year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *GeneratePayrollRequest) Validate() error {
	errs := validatePeriod(r.Month, r.Year, nil)

	for _, id := range r.EmployeeIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must contain valid UUIDs"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EmployeeFailure records an employee the calculator rejected during generation.
type EmployeeFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type PayrunTotals struct {
	TotalEmployees   int   `json:"total_employees"`
	TotalGrossSalary Money `json:"total_gross_salary"`
	TotalDeductions  Money `json:"total_deductions"`
	TotalNetSalary   Money `json:"total_net_salary"`
}

type GeneratePayrollResponse struct {
	PayrunID          string            `json:"payrun_id"`
	Month             int               `json:"month"`
	Year              int               `json:"year"`
	Status            string            `json:"status"`
	PayslipsGenerated int               `json:"payslips_generated"`
	PayslipsSkipped   int               `json:"payslips_skipped"`
	Failures          []EmployeeFailure `json:"failures"`
	Totals            PayrunTotals      `json:"totals"`
}

type FinalizePayrunResponse struct {
	PayrunID              string       `json:"payrun_id"`
	Status                string       `json:"status"`
	PayslipsFingerprinted int          `json:"payslips_fingerprinted"`
	FinalizedAt           time.Time    `json:"finalized_at"`
	Totals                PayrunTotals `json:"totals"`
}

type PayrunFilter struct {
	Month  *int    `json:"month,omitempty"`
	Year   *int    `json:"year,omitempty"`
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f *PayrunFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if f.Year != nil && (*f.Year < MinPayrunYear || *f.Year > MaxPayrunYear) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, []string{
		string(PayrunStatusDraft), string(PayrunStatusProcessing), string(PayrunStatusFinalized),
	}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'draft', 'processing' or 'finalized'"})
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrunResponse struct {
	ID               string     `json:"id"`
	Month            int        `json:"month"`
	Year             int        `json:"year"`
	Status           string     `json:"status"`
	TotalEmployees   int        `json:"total_employees"`
	TotalGrossSalary Money      `json:"total_gross_salary"`
	TotalDeductions  Money      `json:"total_deductions"`
	TotalNetSalary   Money      `json:"total_net_salary"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	FinalizedAt      *time.Time `json:"finalized_at,omitempty"`
}

type ListPayrunResponse struct {
	Payruns    []PayrunResponse `json:"payruns"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// ========== PAYSLIP DTOs ==========

type EmployeePayslipFilter struct {
	Month *int `json:"month,omitempty"`
	Year  *int `json:"year,omitempty"`
}

func (f *EmployeePayslipFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if f.Year != nil && (*f.Year < MinPayrunYear || *f.Year > MaxPayrunYear) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdatePayslipRequest adjusts the manual amounts of a draft payslip.
type UpdatePayslipRequest struct {
	ID              string
	OtherAllowances *decimal.Decimal `json:"other_allowances,omitempty"`
	OtherDeductions *decimal.Decimal `json:"other_deductions,omitempty"`
	BonusAmount     *decimal.Decimal `json:"bonus_amount,omitempty"`
}

func (r *UpdatePayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID == "" {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if r.OtherAllowances == nil && r.OtherDeductions == nil && r.BonusAmount == nil {
		errs = append(errs, validator.ValidationError{Field: "body", Message: "at least one amount must be provided"})
	}
	if r.OtherAllowances != nil && r.OtherAllowances.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "other_allowances", Message: "must be non-negative"})
	}
	if r.OtherDeductions != nil && r.OtherDeductions.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "other_deductions", Message: "must be non-negative"})
	}
	if r.BonusAmount != nil && r.BonusAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "bonus_amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayslipResponse struct {
	ID            string  `json:"id"`
	PayrunID      string  `json:"payrun_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	EmployeeEmail string  `json:"employee_email,omitempty"`
	Designation   *string `json:"designation,omitempty"`
	Department    *string `json:"department,omitempty"`
	Month         int     `json:"month"`
	Year          int     `json:"year"`

	BasicSalary      Money           `json:"basic_salary"`
	HRAPercentage    decimal.Decimal `json:"hra_percentage"`
	DAPercentage     decimal.Decimal `json:"da_percentage"`
	HRA              Money           `json:"hra"`
	DA               Money           `json:"da"`
	OtherAllowances  Money           `json:"other_allowances"`
	BonusAmount      Money           `json:"bonus_amount"`
	AbsenceDeduction Money           `json:"absence_deduction"`
	GrossSalary      Money           `json:"gross_salary"`
	PFDeduction      Money           `json:"pf_deduction"`
	ProfessionalTax  Money           `json:"professional_tax"`
	OtherDeductions  Money           `json:"other_deductions"`
	TotalDeductions  Money           `json:"total_deductions"`
	NetSalary        Money           `json:"net_salary"`

	WorkingDays int `json:"working_days"`
	DaysWorked  int `json:"days_worked"`
	LeavesTaken int `json:"leaves_taken"`

	Fingerprint *string   `json:"fingerprint,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VerifyPayslipResponse struct {
	Verified   bool   `json:"verified"`
	PayslipID  string `json:"payslip_id"`
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	NetSalary  Money  `json:"net_salary"`
}

// PayslipDocument is a rendered payslip ready to be streamed to a client.
type PayslipDocument struct {
	FileName    string
	ContentType string
	Content     []byte
}
