package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

var hundred = decimal.NewFromInt(100)

// CalculationInput is everything needed to price one employee for one month.
type CalculationInput struct {
	BasicSalary         decimal.Decimal
	HRAPercentage       decimal.Decimal
	DAPercentage        decimal.Decimal
	DaysWorked          int
	WorkingDaysStandard int
	LeaveTolerance      int
	PFRate              decimal.Decimal
	ProfessionalTax     decimal.Decimal
	OtherAllowances     decimal.Decimal
	OtherDeductions     decimal.Decimal
	BonusAmount         decimal.Decimal
}

// Figures are the rounded monetary results of a calculation.
type Figures struct {
	BasicSalary      decimal.Decimal
	HRA              decimal.Decimal
	DA               decimal.Decimal
	OtherAllowances  decimal.Decimal
	GrossFull        decimal.Decimal
	AbsenceDeduction decimal.Decimal
	GrossSalary      decimal.Decimal
	PFDeduction      decimal.Decimal
	ProfessionalTax  decimal.Decimal
	OtherDeductions  decimal.Decimal
	TotalDeductions  decimal.Decimal
	BonusAmount      decimal.Decimal
	NetSalary        decimal.Decimal
	WorkingDays      int
	DaysWorked       int
}

// Calculate prices one month of salary. It performs no I/O.
//
// Every component is rounded to two places (half away from zero) as soon as it
// is produced, and the totals are sums of those rounded components.
func Calculate(in CalculationInput) (Figures, error) {
	if err := validateInput(in); err != nil {
		return Figures{}, err
	}

	basic := money(in.BasicSalary)
	hra := money(basic.Mul(in.HRAPercentage).Div(hundred))
	da := money(basic.Mul(in.DAPercentage).Div(hundred))
	otherAllowances := money(in.OtherAllowances)
	grossFull := basic.Add(hra).Add(da).Add(otherAllowances)

	absence := decimal.Zero
	if in.DaysWorked < in.WorkingDaysStandard {
		standard := decimal.NewFromInt(int64(in.WorkingDaysStandard))
		missing := decimal.NewFromInt(int64(in.WorkingDaysStandard - in.DaysWorked))
		absence = money(grossFull.Mul(missing).Div(standard))
	}
	gross := grossFull.Sub(absence)

	pf := money(basic.Mul(in.PFRate))
	professionalTax := money(in.ProfessionalTax)
	otherDeductions := money(in.OtherDeductions)
	totalDeductions := pf.Add(professionalTax).Add(otherDeductions)

	bonus := money(in.BonusAmount)
	net := gross.Sub(totalDeductions).Add(bonus)

	return Figures{
		BasicSalary:      basic,
		HRA:              hra,
		DA:               da,
		OtherAllowances:  otherAllowances,
		GrossFull:        grossFull,
		AbsenceDeduction: absence,
		GrossSalary:      gross,
		PFDeduction:      pf,
		ProfessionalTax:  professionalTax,
		OtherDeductions:  otherDeductions,
		TotalDeductions:  totalDeductions,
		BonusAmount:      bonus,
		NetSalary:        net,
		WorkingDays:      in.WorkingDaysStandard,
		DaysWorked:       in.DaysWorked,
	}, nil
}

func validateInput(in CalculationInput) error {
	if in.PFRate.IsNegative() {
		return fmt.Errorf("%w: pf rate %s is negative", payroll.ErrPolicy, in.PFRate)
	}
	if in.ProfessionalTax.IsNegative() {
		return fmt.Errorf("%w: professional tax %s is negative", payroll.ErrPolicy, in.ProfessionalTax)
	}

	switch {
	case in.BasicSalary.IsNegative():
		return fmt.Errorf("%w: basic salary %s is negative", payroll.ErrInvalidInput, in.BasicSalary)
	case in.HRAPercentage.IsNegative() || in.DAPercentage.IsNegative():
		return fmt.Errorf("%w: allowance percentage is negative", payroll.ErrInvalidInput)
	case in.WorkingDaysStandard <= 0:
		return fmt.Errorf("%w: working days standard must be positive, got %d", payroll.ErrInvalidInput, in.WorkingDaysStandard)
	case in.LeaveTolerance < 0:
		return fmt.Errorf("%w: leave tolerance is negative", payroll.ErrInvalidInput)
	case in.DaysWorked < 0:
		return fmt.Errorf("%w: days worked %d is negative", payroll.ErrInvalidInput, in.DaysWorked)
	case in.DaysWorked > in.WorkingDaysStandard+in.LeaveTolerance:
		return fmt.Errorf("%w: days worked %d exceeds %d working days plus %d tolerance",
			payroll.ErrInvalidInput, in.DaysWorked, in.WorkingDaysStandard, in.LeaveTolerance)
	case in.OtherAllowances.IsNegative():
		return fmt.Errorf("%w: other allowances is negative", payroll.ErrInvalidInput)
	case in.OtherDeductions.IsNegative():
		return fmt.Errorf("%w: other deductions is negative", payroll.ErrInvalidInput)
	case in.BonusAmount.IsNegative():
		return fmt.Errorf("%w: bonus amount is negative", payroll.ErrInvalidInput)
	}
	return nil
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// inputFor builds the calculator input for an employee from the policy and the month's facts.
func inputFor(emp payroll.Employee, facts payroll.AttendanceFacts, extras payroll.Extras, policy payroll.Policy) CalculationInput {
	hraPct := policy.DefaultHRAPct
	if emp.HRAPercentage != nil {
		hraPct = *emp.HRAPercentage
	}
	daPct := policy.DefaultDAPct
	if emp.DAPercentage != nil {
		daPct = *emp.DAPercentage
	}
	standard := policy.WorkingDaysStandard
	if emp.WorkingDaysStandard != nil {
		standard = *emp.WorkingDaysStandard
	}

	return CalculationInput{
		BasicSalary:         emp.BasicSalary,
		HRAPercentage:       hraPct,
		DAPercentage:        daPct,
		DaysWorked:          facts.DaysWorked(),
		WorkingDaysStandard: standard,
		LeaveTolerance:      policy.LeaveTolerance,
		PFRate:              policy.PFRate,
		ProfessionalTax:     policy.ProfessionalTax,
		OtherAllowances:     extras.OtherAllowances,
		OtherDeductions:     extras.OtherDeductions,
		BonusAmount:         extras.BonusAmount,
	}
}
