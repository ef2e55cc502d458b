package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

type stubPayrollService struct {
	payroll.PayrollService

	mu    sync.Mutex
	calls []payroll.GeneratePayrollRequest
	err   error
}

func (s *stubPayrollService) GeneratePayroll(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.GeneratePayrollResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return payroll.GeneratePayrollResponse{}, s.err
	}
	return payroll.GeneratePayrollResponse{PayrunID: "run-1", PayslipsGenerated: 1}, nil
}

func (s *stubPayrollService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshCurrentPayrun_UsesCurrentUTCMonth(t *testing.T) {
	svc := &stubPayrollService{}
	jobs := NewPayrollJobs(svc, discardLogger())
	jobs.now = func() time.Time {
		return time.Date(2025, 12, 31, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*60*60))
	}

	// Act
	err := jobs.RefreshCurrentPayrun(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, svc.calls, 1)
	assert.Equal(t, 1, svc.calls[0].Month)
	assert.Equal(t, 2026, svc.calls[0].Year)
}

func TestRefreshCurrentPayrun_SkipsFinalizedAndBusyPayruns(t *testing.T) {
	for _, skipped := range []error{payroll.ErrDuplicatePayrun, payroll.ErrConcurrencyConflict} {
		svc := &stubPayrollService{err: skipped}
		jobs := NewPayrollJobs(svc, discardLogger())

		assert.NoError(t, jobs.RefreshCurrentPayrun(context.Background()))
	}
}

func TestRefreshCurrentPayrun_ReportsOtherErrors(t *testing.T) {
	svc := &stubPayrollService{err: errors.New("database unavailable")}
	jobs := NewPayrollJobs(svc, discardLogger())

	err := jobs.RefreshCurrentPayrun(context.Background())

	assert.ErrorContains(t, err, "database unavailable")
}

func TestScheduler_RunsJobsUntilStopped(t *testing.T) {
	svc := &stubPayrollService{}
	scheduler := NewScheduler(discardLogger())
	NewPayrollJobs(svc, discardLogger()).RegisterJobs(scheduler, 10*time.Millisecond)

	// Act
	scheduler.Start(context.Background())
	require.Eventually(t, func() bool { return svc.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	scheduler.Stop()

	// Assert
	stoppedAt := svc.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stoppedAt, svc.callCount())
}

func TestScheduler_DisabledJobIsNotRegistered(t *testing.T) {
	svc := &stubPayrollService{}
	scheduler := NewScheduler(discardLogger())
	NewPayrollJobs(svc, discardLogger()).RegisterJobs(scheduler, 0)

	scheduler.RunOnce(context.Background())

	assert.Equal(t, 0, svc.callCount())
}
