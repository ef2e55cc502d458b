package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

// PayrollJobs keeps the current period's draft payrun up to date so that
// employees who become eligible mid-month get a payslip before finalization.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	logger         *slog.Logger
	now            func() time.Time
}

func NewPayrollJobs(payrollService payroll.PayrollService, logger *slog.Logger) *PayrollJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollJobs{
		payrollService: payrollService,
		logger:         logger,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("refresh_current_payrun", interval, j.RefreshCurrentPayrun)
}

// RefreshCurrentPayrun generates missing draft payslips for the current UTC month.
// A finalized or busy payrun is left alone.
func (j *PayrollJobs) RefreshCurrentPayrun(ctx context.Context) error {
	now := j.now().UTC()
	resp, err := j.payrollService.GeneratePayroll(ctx, payroll.GeneratePayrollRequest{
		Month: int(now.Month()),
		Year:  now.Year(),
	})
	switch {
	case errors.Is(err, payroll.ErrAlreadyFinalized), errors.Is(err, payroll.ErrConcurrencyConflict):
		j.logger.DebugContext(ctx, "Cron: current payrun skipped", slog.String("reason", err.Error()))
		return nil
	case err != nil:
		return err
	}

	if resp.PayslipsGenerated > 0 || len(resp.Failures) > 0 {
		j.logger.InfoContext(ctx, "Cron: current payrun refreshed",
			slog.String("payrun_id", resp.PayrunID),
			slog.Int("generated", resp.PayslipsGenerated),
			slog.Int("failed", len(resp.Failures)),
		)
	}
	return nil
}
