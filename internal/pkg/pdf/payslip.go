package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

type PayslipRenderer struct {
	companyName string
}

func NewPayslipRenderer(companyName string) *PayslipRenderer {
	return &PayslipRenderer{companyName: companyName}
}

type line struct {
	label  string
	amount decimal.Decimal
}

// Render lays out a single A4 payslip with earnings on the left and deductions on the right.
func (r *PayslipRenderer) Render(p payroll.Payslip, currency string) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Payslip %02d/%d - %s", p.Month, p.Year, p.EmployeeName), true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, r.companyName, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	period := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	doc.CellFormat(0, 8, "Payslip for "+period.Format("January 2006"), "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, "Employee: "+p.EmployeeName)
	doc.Ln(6)
	doc.Cell(0, 6, "Email: "+p.EmployeeEmail)
	doc.Ln(6)
	if p.Designation != nil {
		doc.Cell(0, 6, "Designation: "+*p.Designation)
		doc.Ln(6)
	}
	if p.Department != nil {
		doc.Cell(0, 6, "Department: "+*p.Department)
		doc.Ln(6)
	}
	doc.Cell(0, 6, fmt.Sprintf("Working days: %d   Days worked: %d   Leaves taken: %d", p.WorkingDays, p.DaysWorked, p.LeavesTaken))
	doc.Ln(10)

	earnings := []line{
		{"Basic salary", p.BasicSalary},
		{"HRA", p.HRA},
		{"DA", p.DA},
		{"Other allowances", p.OtherAllowances},
		{"Absence deduction", p.AbsenceDeduction.Neg()},
		{"Gross salary", p.GrossSalary},
	}
	deductions := []line{
		{"Provident fund", p.PFDeduction},
		{"Professional tax", p.ProfessionalTax},
		{"Other deductions", p.OtherDeductions},
		{"", decimal.Zero},
		{"", decimal.Zero},
		{"Total deductions", p.TotalDeductions},
	}

	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(55, 8, "Earnings", "1", 0, "L", true, 0, "")
	doc.CellFormat(40, 8, currency, "1", 0, "R", true, 0, "")
	doc.CellFormat(55, 8, "Deductions", "1", 0, "L", true, 0, "")
	doc.CellFormat(40, 8, currency, "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for i := range earnings {
		doc.CellFormat(55, 7, earnings[i].label, "1", 0, "L", false, 0, "")
		doc.CellFormat(40, 7, earnings[i].amount.StringFixed(2), "1", 0, "R", false, 0, "")
		doc.CellFormat(55, 7, deductions[i].label, "1", 0, "L", false, 0, "")
		amount := ""
		if deductions[i].label != "" {
			amount = deductions[i].amount.StringFixed(2)
		}
		doc.CellFormat(40, 7, amount, "1", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(150, 7, "Bonus", "1", 0, "L", false, 0, "")
	doc.CellFormat(40, 7, p.BonusAmount.StringFixed(2), "1", 1, "R", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(150, 8, "Net salary", "1", 0, "L", true, 0, "")
	doc.CellFormat(40, 8, p.NetSalary.StringFixed(2)+" "+currency, "1", 1, "R", true, 0, "")
	doc.Ln(8)

	doc.SetFont("Courier", "", 8)
	if p.Fingerprint != nil {
		doc.MultiCell(0, 4, "Verification checksum: "+*p.Fingerprint, "", "L", false)
	} else {
		doc.MultiCell(0, 4, "DRAFT - this payslip has not been finalized", "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip pdf: %w", err)
	}

	return buf.Bytes(), nil
}
