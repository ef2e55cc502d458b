package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayrunStatus string

const (
	PayrunStatusDraft      PayrunStatus = "draft"
	PayrunStatusProcessing PayrunStatus = "processing"
	PayrunStatusFinalized  PayrunStatus = "finalized"
)

type PayslipStatus string

const (
	PayslipStatusDraft     PayslipStatus = "draft"
	PayslipStatusFinalized PayslipStatus = "finalized"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLeave   AttendanceStatus = "leave"
	AttendanceStatusHalfDay AttendanceStatus = "half-day"
)

// Employee is the payroll view of a staff member.
type Employee struct {
	ID                  string
	FullName            string
	Email               string
	Role                string
	Designation         *string
	Department          *string
	IsActive            bool
	BasicSalary         decimal.Decimal
	HRAPercentage       *decimal.Decimal
	DAPercentage        *decimal.Decimal
	WorkingDaysStandard *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AttendanceFacts counts one employee's attendance rows within a month.
type AttendanceFacts struct {
	EmployeeID  string
	DaysPresent int
	DaysAbsent  int
	DaysOnLeave int
	DaysHalf    int
}

// DaysWorked counts a half-day as half a day, truncated.
func (a AttendanceFacts) DaysWorked() int {
	return a.DaysPresent + a.DaysHalf/2
}

// Extras are the monthly amounts added on top of the salary structure.
type Extras struct {
	EmployeeID      string
	OtherAllowances decimal.Decimal
	OtherDeductions decimal.Decimal
	BonusAmount     decimal.Decimal
}

// Policy carries the statutory constants a payrun is computed with.
type Policy struct {
	PFRate              decimal.Decimal
	ProfessionalTax     decimal.Decimal
	WorkingDaysStandard int
	LeaveTolerance      int
	DefaultHRAPct       decimal.Decimal
	DefaultDAPct        decimal.Decimal
}

type Payrun struct {
	ID               string
	Month            int
	Year             int
	Status           PayrunStatus
	TotalEmployees   int
	TotalGrossSalary decimal.Decimal
	TotalDeductions  decimal.Decimal
	TotalNetSalary   decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
	FinalizedAt      *time.Time
}

type Payslip struct {
	ID         string
	PayrunID   string
	EmployeeID string

	BasicSalary      decimal.Decimal
	HRAPercentage    decimal.Decimal
	DAPercentage     decimal.Decimal
	HRA              decimal.Decimal
	DA               decimal.Decimal
	OtherAllowances  decimal.Decimal
	BonusAmount      decimal.Decimal
	AbsenceDeduction decimal.Decimal
	GrossSalary      decimal.Decimal
	PFDeduction      decimal.Decimal
	ProfessionalTax  decimal.Decimal
	OtherDeductions  decimal.Decimal
	TotalDeductions  decimal.Decimal
	NetSalary        decimal.Decimal

	WorkingDays int
	DaysWorked  int
	LeavesTaken int

	Fingerprint *string
	Status      PayslipStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	Month         int
	Year          int
	EmployeeName  string
	EmployeeEmail string
	Designation   *string
	Department    *string
}

// IsFinalized reports whether the payslip can no longer be changed.
func (p Payslip) IsFinalized() bool {
	return p.Status == PayslipStatusFinalized
}
