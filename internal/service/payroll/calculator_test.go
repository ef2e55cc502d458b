package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func standardInput() CalculationInput {
	return CalculationInput{
		BasicSalary:         d("50000.00"),
		HRAPercentage:       d("40"),
		DAPercentage:        d("20"),
		DaysWorked:          26,
		WorkingDaysStandard: 26,
		LeaveTolerance:      5,
		PFRate:              d("0.12"),
		ProfessionalTax:     d("200.00"),
		OtherAllowances:     decimal.Zero,
		OtherDeductions:     decimal.Zero,
		BonusAmount:         decimal.Zero,
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got.StringFixed(2))
}

func TestCalculate_FullAttendance(t *testing.T) {
	// Act
	fig, err := Calculate(standardInput())

	// Assert
	require.NoError(t, err)
	assertMoney(t, "50000.00", fig.BasicSalary, "basic")
	assertMoney(t, "20000.00", fig.HRA, "hra")
	assertMoney(t, "10000.00", fig.DA, "da")
	assertMoney(t, "80000.00", fig.GrossFull, "gross_full")
	assertMoney(t, "0", fig.AbsenceDeduction, "absence")
	assertMoney(t, "80000.00", fig.GrossSalary, "gross")
	assertMoney(t, "6000.00", fig.PFDeduction, "pf")
	assertMoney(t, "200.00", fig.ProfessionalTax, "professional_tax")
	assertMoney(t, "6200.00", fig.TotalDeductions, "total_deductions")
	assertMoney(t, "73800.00", fig.NetSalary, "net")
	assert.Equal(t, 26, fig.WorkingDays)
	assert.Equal(t, 26, fig.DaysWorked)
}

func TestCalculate_ProratedForAbsence(t *testing.T) {
	in := standardInput()
	in.DaysWorked = 20

	// Act
	fig, err := Calculate(in)

	// Assert
	require.NoError(t, err)
	assertMoney(t, "18461.54", fig.AbsenceDeduction, "absence")
	assertMoney(t, "61538.46", fig.GrossSalary, "gross")
	assertMoney(t, "6000.00", fig.PFDeduction, "pf")
	assertMoney(t, "6200.00", fig.TotalDeductions, "total_deductions")
	assertMoney(t, "55338.46", fig.NetSalary, "net")
}

func TestCalculate_OverAttendanceWithinToleranceIsNotPaidExtra(t *testing.T) {
	in := standardInput()
	in.DaysWorked = 31

	// Act
	fig, err := Calculate(in)

	// Assert
	require.NoError(t, err)
	assertMoney(t, "80000.00", fig.GrossSalary, "gross")
	assertMoney(t, "73800.00", fig.NetSalary, "net")
}

func TestCalculate_ExtrasAndBonus(t *testing.T) {
	in := standardInput()
	in.OtherAllowances = d("1500.00")
	in.OtherDeductions = d("300.00")
	in.BonusAmount = d("5000.00")

	// Act
	fig, err := Calculate(in)

	// Assert
	require.NoError(t, err)
	assertMoney(t, "81500.00", fig.GrossSalary, "gross")
	assertMoney(t, "6500.00", fig.TotalDeductions, "total_deductions")
	assertMoney(t, "80000.00", fig.NetSalary, "net")
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	in := standardInput()
	// 10000.05 * 12% = 1200.006 and 10000.05 * 40% = 4000.02
	in.BasicSalary = d("10000.05")
	in.PFRate = d("0.12")
	in.DAPercentage = d("0.05")

	// Act
	fig, err := Calculate(in)

	// Assert
	require.NoError(t, err)
	assertMoney(t, "1200.01", fig.PFDeduction, "pf")
	assertMoney(t, "4000.02", fig.HRA, "hra")
	// 10000.05 * 0.05% = 5.000025
	assertMoney(t, "5.00", fig.DA, "da")

	in.BasicSalary = d("100.10")
	in.DAPercentage = d("2.5")
	fig, err = Calculate(in)
	require.NoError(t, err)
	// 100.10 * 2.5% = 2.5025 and 100.10 * 0.12 = 12.012
	assertMoney(t, "2.50", fig.DA, "da")
	assertMoney(t, "12.01", fig.PFDeduction, "pf")

	in.BasicSalary = d("0.25")
	in.HRAPercentage = d("50")
	fig, err = Calculate(in)
	require.NoError(t, err)
	// 0.125 must round up, banker's rounding would give 0.12
	assertMoney(t, "0.13", fig.HRA, "hra")
}

func TestCalculate_Invariants(t *testing.T) {
	for days := 0; days <= 31; days++ {
		in := standardInput()
		in.DaysWorked = days
		in.OtherAllowances = d("333.33")
		in.OtherDeductions = d("123.45")
		in.BonusAmount = d("99.99")

		fig, err := Calculate(in)
		require.NoError(t, err, "days=%d", days)

		assert.True(t, fig.TotalDeductions.Equal(fig.PFDeduction.Add(fig.ProfessionalTax).Add(fig.OtherDeductions)), "days=%d", days)
		assert.True(t, fig.NetSalary.Equal(fig.GrossSalary.Sub(fig.TotalDeductions).Add(fig.BonusAmount)), "days=%d", days)
		assert.True(t, fig.GrossSalary.Equal(fig.GrossFull.Sub(fig.AbsenceDeduction)), "days=%d", days)
		assert.True(t, fig.NetSalary.Equal(fig.NetSalary.Round(2)), "days=%d", days)
	}
}

func TestCalculate_ProrationIsMonotonic(t *testing.T) {
	previous := decimal.NewFromInt(-1)
	for days := 0; days <= 26; days++ {
		in := standardInput()
		in.DaysWorked = days

		fig, err := Calculate(in)
		require.NoError(t, err)

		assert.True(t, fig.GrossSalary.GreaterThanOrEqual(previous), "gross decreased at days=%d", days)
		previous = fig.GrossSalary
	}
}

func TestCalculate_ZeroDaysWorked(t *testing.T) {
	in := standardInput()
	in.DaysWorked = 0

	// Act
	fig, err := Calculate(in)

	// Assert
	require.NoError(t, err)
	assertMoney(t, "0", fig.GrossSalary, "gross")
	assertMoney(t, "80000.00", fig.AbsenceDeduction, "absence")
	// PF is charged on basic regardless of attendance
	assertMoney(t, "-6200.00", fig.NetSalary, "net")
}

func TestCalculate_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *CalculationInput)
	}{
		{"negative basic", func(in *CalculationInput) { in.BasicSalary = d("-1") }},
		{"zero working days", func(in *CalculationInput) { in.WorkingDaysStandard = 0 }},
		{"negative days worked", func(in *CalculationInput) { in.DaysWorked = -1 }},
		{"over attendance beyond tolerance", func(in *CalculationInput) { in.DaysWorked = 32 }},
		{"negative allowance", func(in *CalculationInput) { in.OtherAllowances = d("-0.01") }},
		{"negative deduction", func(in *CalculationInput) { in.OtherDeductions = d("-5") }},
		{"negative bonus", func(in *CalculationInput) { in.BonusAmount = d("-5") }},
		{"negative hra percentage", func(in *CalculationInput) { in.HRAPercentage = d("-40") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := standardInput()
			tc.mutate(&in)

			_, err := Calculate(in)

			assert.ErrorIs(t, err, payroll.ErrInvalidInput)
		})
	}
}

func TestCalculate_PolicyError(t *testing.T) {
	in := standardInput()
	in.PFRate = d("-0.12")
	_, err := Calculate(in)
	assert.ErrorIs(t, err, payroll.ErrPolicy)

	in = standardInput()
	in.ProfessionalTax = d("-200")
	_, err = Calculate(in)
	assert.ErrorIs(t, err, payroll.ErrPolicy)
}

func TestInputFor_UsesEmployeeOverridesThenPolicy(t *testing.T) {
	policy := payroll.Policy{
		PFRate:              d("0.12"),
		ProfessionalTax:     d("200"),
		WorkingDaysStandard: 26,
		LeaveTolerance:      5,
		DefaultHRAPct:       d("40"),
		DefaultDAPct:        d("20"),
	}
	facts := payroll.AttendanceFacts{DaysPresent: 18, DaysHalf: 5}
	extras := payroll.Extras{BonusAmount: d("1000")}

	hra := d("30")
	days := 22
	emp := payroll.Employee{ID: "e1", BasicSalary: d("40000"), HRAPercentage: &hra, WorkingDaysStandard: &days}

	// Act
	in := inputFor(emp, facts, extras, policy)

	// Assert
	assert.True(t, in.HRAPercentage.Equal(d("30")))
	assert.True(t, in.DAPercentage.Equal(d("20")))
	assert.Equal(t, 22, in.WorkingDaysStandard)
	assert.Equal(t, 20, in.DaysWorked)
	assert.True(t, in.BonusAmount.Equal(d("1000")))
	assert.True(t, in.OtherAllowances.IsZero())
}
