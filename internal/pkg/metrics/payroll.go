package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/validator"
)

const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// PayrollMetrics captures payrun generation and finalization health.
// A nil *PayrollMetrics is valid and records nothing.
type PayrollMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payslipsGenerated prometheus.Counter
	payslipsSkipped   prometheus.Counter
	employeeFailures  prometheus.Counter
	payslipsFinalized prometheus.Counter
	verifications     *prometheus.CounterVec
}

func NewPayrollMetrics(registerer prometheus.Registerer) *PayrollMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &PayrollMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "operations_total",
			Help:      "Payrun operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "operation_duration_seconds",
			Help:      "Duration of payrun operations.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		payslipsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "payslips_generated_total",
			Help:      "Draft payslips created by generation.",
		}),
		payslipsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "payslips_skipped_total",
			Help:      "Employees skipped because a payslip already existed.",
		}),
		employeeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "employee_failures_total",
			Help:      "Employees the calculator rejected during generation.",
		}),
		payslipsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "payslips_finalized_total",
			Help:      "Payslips fingerprinted by finalization.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrms",
			Subsystem: "payroll",
			Name:      "verifications_total",
			Help:      "Payslip verifications by result.",
		}, []string{"result"}),
	}

	registerer.MustRegister(
		m.operations,
		m.operationDuration,
		m.payslipsGenerated,
		m.payslipsSkipped,
		m.employeeFailures,
		m.payslipsFinalized,
		m.verifications,
	)

	return m
}

// ClassifyOutcome maps an operation error onto a low-cardinality outcome label.
func ClassifyOutcome(err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return OutcomeTimeout
	case errors.Is(err, payroll.ErrConcurrencyConflict):
		return OutcomeConflict
	case errors.Is(err, payroll.ErrAlreadyFinalized),
		errors.Is(err, payroll.ErrEmptyPayrun),
		errors.Is(err, payroll.ErrPayrunNotFound),
		errors.Is(err, payroll.ErrPayslipNotFound),
		errors.Is(err, payroll.ErrPayslipFinalized),
		errors.Is(err, payroll.ErrInvalidInput),
		errors.As(err, &validationErrs):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// ObserveOperation records the outcome and duration of a payrun operation started at start.
func (m *PayrollMetrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, ClassifyOutcome(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *PayrollMetrics) ObserveGeneration(generated, skipped, failed int) {
	if m == nil {
		return
	}
	m.payslipsGenerated.Add(float64(generated))
	m.payslipsSkipped.Add(float64(skipped))
	m.employeeFailures.Add(float64(failed))
}

func (m *PayrollMetrics) ObserveFinalized(payslips int) {
	if m == nil {
		return
	}
	m.payslipsFinalized.Add(float64(payslips))
}

func (m *PayrollMetrics) ObserveVerification(verified bool) {
	if m == nil {
		return
	}
	result := "mismatch"
	if verified {
		result = "verified"
	}
	m.verifications.WithLabelValues(result).Inc()
}
