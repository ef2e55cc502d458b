package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/workzen/hrms-backend-go/internal/domain/auth"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/domain/user"
	"github.com/workzen/hrms-backend-go/internal/pkg/validator"
)

// RetryAfterSeconds is the hint sent with retryable payrun lock conflicts.
const RetryAfterSeconds = 5

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrEmployeeLinkRequired):
		Forbidden(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrunNotFound):
		NotFound(w, "Payrun not found")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrInvalidInput):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrEmptyPayrun):
		BadRequest(w, "Payrun has no payslips to finalize", nil)
	case errors.Is(err, payroll.ErrDuplicatePayrun):
		Conflict(w, "Payroll for this period is already finalized")
	case errors.Is(err, payroll.ErrPayslipFinalized):
		Conflict(w, "Payslip is finalized and cannot be modified")
	case errors.Is(err, payroll.ErrAlreadyFinalized):
		Conflict(w, "Payrun already finalized")
	case errors.Is(err, payroll.ErrConcurrencyConflict):
		RetryableConflict(w, "CONCURRENCY_CONFLICT", "Payrun is being processed by another request", RetryAfterSeconds)
	case errors.Is(err, payroll.ErrPolicy):
		ErrorWithCode(w, http.StatusInternalServerError, "POLICY_ERROR", "Payroll policy is misconfigured")
	case errors.Is(err, context.DeadlineExceeded):
		ErrorWithCode(w, http.StatusGatewayTimeout, "TIMEOUT", "Payroll operation timed out")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
