package payroll

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

// Fingerprint is an integrity checksum over the identifying fields of a
// finalized payslip. It is keyless: anyone with write access to storage can
// recompute it, so it detects accidental edits, not forgery.
//
// Input is employeeID, month and year in decimal, and net with exactly two
// fraction digits, concatenated without separators.
func Fingerprint(employeeID string, month, year int, net decimal.Decimal) string {
	sum := sha256.Sum256([]byte(employeeID + strconv.Itoa(month) + strconv.Itoa(year) + net.StringFixed(2)))
	return hex.EncodeToString(sum[:])
}

// VerifyFingerprint reports whether p carries a fingerprint matching its current figures.
func VerifyFingerprint(p payroll.Payslip, month, year int) bool {
	if p.Fingerprint == nil || *p.Fingerprint == "" {
		return false
	}
	want := Fingerprint(p.EmployeeID, month, year, p.NetSalary)
	return subtle.ConstantTimeCompare([]byte(want), []byte(*p.Fingerprint)) == 1
}
