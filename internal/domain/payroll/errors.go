package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid payroll input")
	ErrPolicy              = errors.New("invalid payroll policy")
	ErrPayrunNotFound      = errors.New("payrun not found")
	ErrPayslipNotFound     = errors.New("payslip not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrAlreadyFinalized    = errors.New("payrun already finalized")
	ErrEmptyPayrun         = errors.New("payrun has no payslips")
	ErrConcurrencyConflict = errors.New("payrun is locked by another operation")
	ErrPayslipExists       = errors.New("payslip already exists for this employee and payrun")
)

// ErrDuplicatePayrun is returned when generation targets a finalized period.
// It matches ErrAlreadyFinalized under errors.Is.
var ErrDuplicatePayrun = fmt.Errorf("%w: period cannot be regenerated", ErrAlreadyFinalized)

// ErrPayslipFinalized is returned when a finalized payslip would be modified.
var ErrPayslipFinalized = fmt.Errorf("%w: payslip cannot be modified", ErrAlreadyFinalized)
