package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/metrics"
	"github.com/workzen/hrms-backend-go/internal/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// Settings are the run-time knobs of the payroll service.
type Settings struct {
	Policy          payroll.Policy
	Workers         int
	GenerateTimeout time.Duration
	Currency        string
}

type PayrollServiceImpl struct {
	transactor  payroll.Transactor
	payrunRepo  payroll.PayrunRepository
	employees   payroll.EmployeeDirectory
	attendance  payroll.AttendanceLedger
	bonuses     payroll.BonusPolicy
	renderer    payroll.PayslipRenderer
	fileStorage storage.FileStorage
	settings    Settings
	logger      *slog.Logger
	metrics     *metrics.PayrollMetrics
	now         func() time.Time
}

func NewPayrollService(
	transactor payroll.Transactor,
	payrunRepo payroll.PayrunRepository,
	employees payroll.EmployeeDirectory,
	attendance payroll.AttendanceLedger,
	bonuses payroll.BonusPolicy,
	renderer payroll.PayslipRenderer,
	fileStorage storage.FileStorage,
	settings Settings,
	logger *slog.Logger,
	payrollMetrics *metrics.PayrollMetrics,
) payroll.PayrollService {
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollServiceImpl{
		transactor:  transactor,
		payrunRepo:  payrunRepo,
		employees:   employees,
		attendance:  attendance,
		bonuses:     bonuses,
		renderer:    renderer,
		fileStorage: fileStorage,
		settings:    settings,
		logger:      logger,
		metrics:     payrollMetrics,
		now:         time.Now,
	}
}

// calculation is the outcome of pricing one pending employee.
type calculation struct {
	employee payroll.Employee
	facts    payroll.AttendanceFacts
	input    CalculationInput
	figures  Figures
	err      error
}

// ========== PAYRUNS ==========

func (s *PayrollServiceImpl) GeneratePayroll(ctx context.Context, req payroll.GeneratePayrollRequest) (resp payroll.GeneratePayrollResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveOperation("generate", start, err) }()

	if err := req.Validate(); err != nil {
		return payroll.GeneratePayrollResponse{}, err
	}
	if err := validatePolicy(s.settings.Policy); err != nil {
		return payroll.GeneratePayrollResponse{}, err
	}

	if s.settings.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.GenerateTimeout)
		defer cancel()
	}

	var result payroll.GeneratePayrollResponse
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		payrunID, err := s.payrunRepo.EnsurePayrun(ctx, req.Month, req.Year)
		if err != nil {
			return err
		}

		run, err := s.payrunRepo.LockPayrun(ctx, payrunID)
		if err != nil {
			return err
		}
		if run.Status == payroll.PayrunStatusFinalized {
			return payroll.ErrDuplicatePayrun
		}
		if run.Status != payroll.PayrunStatusProcessing {
			if err := s.payrunRepo.UpdatePayrunStatus(ctx, run.ID, payroll.PayrunStatusProcessing); err != nil {
				return err
			}
		}

		employees, err := s.employees.ListEligible(ctx, req.EmployeeIDs)
		if err != nil {
			return err
		}

		existingIDs, err := s.payrunRepo.ListPayslipEmployeeIDs(ctx, run.ID)
		if err != nil {
			return err
		}
		existing := make(map[string]struct{}, len(existingIDs))
		for _, id := range existingIDs {
			existing[id] = struct{}{}
		}

		failures := []payroll.EmployeeFailure{}
		if len(req.EmployeeIDs) > 0 {
			failures = append(failures, missingEmployees(req.EmployeeIDs, employees)...)
		}

		var pending []payroll.Employee
		skipped := 0
		for _, emp := range employees {
			if _, ok := existing[emp.ID]; ok {
				skipped++
				continue
			}
			pending = append(pending, emp)
		}

		generated := 0
		if len(pending) > 0 {
			calculations, err := s.calculate(ctx, pending, req.Month, req.Year)
			if err != nil {
				return err
			}

			for _, c := range calculations {
				if c.err != nil {
					if errors.Is(c.err, payroll.ErrPolicy) {
						return c.err
					}
					failures = append(failures, payroll.EmployeeFailure{EmployeeID: c.employee.ID, Reason: c.err.Error()})
					continue
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				_, err := s.payrunRepo.CreatePayslip(ctx, newPayslip(run.ID, c))
				if errors.Is(err, payroll.ErrPayslipExists) {
					skipped++
					continue
				}
				if err != nil {
					return fmt.Errorf("failed to persist payslip for employee %s: %w", c.employee.ID, err)
				}
				generated++
			}
		}

		run, err = s.payrunRepo.RecomputeTotals(ctx, run.ID)
		if err != nil {
			return err
		}

		result = payroll.GeneratePayrollResponse{
			PayrunID:          run.ID,
			Month:             run.Month,
			Year:              run.Year,
			Status:            string(run.Status),
			PayslipsGenerated: generated,
			PayslipsSkipped:   skipped,
			Failures:          failures,
			Totals:            totalsOf(run),
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "payroll generation aborted",
			slog.Int("month", req.Month), slog.Int("year", req.Year), slog.String("error", err.Error()))
		return payroll.GeneratePayrollResponse{}, err
	}

	s.metrics.ObserveGeneration(result.PayslipsGenerated, result.PayslipsSkipped, len(result.Failures))
	s.logger.InfoContext(ctx, "payroll generated",
		slog.String("payrun_id", result.PayrunID),
		slog.Int("month", result.Month),
		slog.Int("year", result.Year),
		slog.Int("generated", result.PayslipsGenerated),
		slog.Int("skipped", result.PayslipsSkipped),
		slog.Int("failed", len(result.Failures)),
	)

	return result, nil
}

// calculate loads the month's facts in bulk and prices every pending employee
// concurrently. Results keep the order of pending.
func (s *PayrollServiceImpl) calculate(ctx context.Context, pending []payroll.Employee, month, year int) ([]calculation, error) {
	ids := make([]string, len(pending))
	for i, emp := range pending {
		ids[i] = emp.ID
	}

	facts, err := s.attendance.Facts(ctx, ids, month, year)
	if err != nil {
		return nil, err
	}
	extras, err := s.bonuses.Extras(ctx, ids, month, year)
	if err != nil {
		return nil, err
	}

	results := make([]calculation, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Workers)
	for i, emp := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f := facts[emp.ID]
			f.EmployeeID = emp.ID
			in := inputFor(emp, f, extras[emp.ID], s.settings.Policy)
			fig, err := Calculate(in)
			results[i] = calculation{employee: emp, facts: f, input: in, figures: fig, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *PayrollServiceImpl) FinalizePayrun(ctx context.Context, payrunID string) (resp payroll.FinalizePayrunResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveOperation("finalize", start, err) }()

	var result payroll.FinalizePayrunResponse
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		run, err := s.payrunRepo.LockPayrun(ctx, payrunID)
		if err != nil {
			return err
		}
		if run.Status == payroll.PayrunStatusFinalized {
			return payroll.ErrAlreadyFinalized
		}

		payslips, err := s.payrunRepo.ListPayslipsByPayrun(ctx, run.ID)
		if err != nil {
			return err
		}
		if len(payslips) == 0 {
			return payroll.ErrEmptyPayrun
		}

		for _, p := range payslips {
			fingerprint := Fingerprint(p.EmployeeID, run.Month, run.Year, p.NetSalary)
			if err := s.payrunRepo.FinalizePayslip(ctx, p.ID, fingerprint); err != nil {
				return fmt.Errorf("failed to fingerprint payslip %s: %w", p.ID, err)
			}
		}

		finalizedAt := s.now().UTC()
		if err := s.payrunRepo.MarkPayrunFinalized(ctx, run.ID, finalizedAt); err != nil {
			return err
		}

		run, err = s.payrunRepo.RecomputeTotals(ctx, run.ID)
		if err != nil {
			return err
		}

		result = payroll.FinalizePayrunResponse{
			PayrunID:              run.ID,
			Status:                string(run.Status),
			PayslipsFingerprinted: len(payslips),
			FinalizedAt:           finalizedAt,
			Totals:                totalsOf(run),
		}
		return nil
	})
	if err != nil {
		return payroll.FinalizePayrunResponse{}, err
	}

	s.metrics.ObserveFinalized(result.PayslipsFingerprinted)
	s.logger.InfoContext(ctx, "payrun finalized",
		slog.String("payrun_id", result.PayrunID),
		slog.Int("payslips", result.PayslipsFingerprinted),
	)

	return result, nil
}

func (s *PayrollServiceImpl) GetPayrun(ctx context.Context, id string) (payroll.PayrunResponse, error) {
	run, err := s.payrunRepo.GetPayrunByID(ctx, id)
	if err != nil {
		return payroll.PayrunResponse{}, err
	}
	return mapToPayrunResponse(run), nil
}

func (s *PayrollServiceImpl) ListPayruns(ctx context.Context, filter payroll.PayrunFilter) (payroll.ListPayrunResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrunResponse{}, err
	}

	runs, total, err := s.payrunRepo.ListPayruns(ctx, filter)
	if err != nil {
		return payroll.ListPayrunResponse{}, err
	}

	responses := make([]payroll.PayrunResponse, len(runs))
	for i, run := range runs {
		responses[i] = mapToPayrunResponse(run)
	}

	return payroll.ListPayrunResponse{
		Payruns:    responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *PayrollServiceImpl) DeletePayrun(ctx context.Context, id string) (err error) {
	start := s.now()
	defer func() { s.metrics.ObserveOperation("delete", start, err) }()

	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		run, err := s.payrunRepo.LockPayrun(ctx, id)
		if err != nil {
			return err
		}
		if run.Status == payroll.PayrunStatusFinalized {
			return payroll.ErrAlreadyFinalized
		}
		return s.payrunRepo.DeletePayrun(ctx, run.ID)
	})
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, payrunID, employeeID string) (payroll.PayslipResponse, error) {
	p, err := s.payrunRepo.GetPayslipByEmployee(ctx, payrunID, employeeID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return mapToPayslipResponse(p), nil
}

func (s *PayrollServiceImpl) GetPayslipByID(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	p, err := s.payrunRepo.GetPayslipByID(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return mapToPayslipResponse(p), nil
}

func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, payrunID string) ([]payroll.PayslipResponse, error) {
	if _, err := s.payrunRepo.GetPayrunByID(ctx, payrunID); err != nil {
		return nil, err
	}

	payslips, err := s.payrunRepo.ListPayslipsByPayrun(ctx, payrunID)
	if err != nil {
		return nil, err
	}

	return mapToPayslipResponses(payslips), nil
}

func (s *PayrollServiceImpl) ListEmployeePayslips(ctx context.Context, employeeID string, filter payroll.EmployeePayslipFilter) ([]payroll.PayslipResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	payslips, err := s.payrunRepo.ListPayslipsByEmployee(ctx, employeeID, filter)
	if err != nil {
		return nil, err
	}

	return mapToPayslipResponses(payslips), nil
}

// UpdatePayslip replaces the manual amounts of a draft payslip and reprices it
// from its stored salary structure and attendance.
func (s *PayrollServiceImpl) UpdatePayslip(ctx context.Context, req payroll.UpdatePayslipRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	var updated payroll.Payslip
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.payrunRepo.GetPayslipByID(ctx, req.ID)
		if err != nil {
			return err
		}

		run, err := s.payrunRepo.LockPayrun(ctx, current.PayrunID)
		if err != nil {
			return err
		}

		// Amounts must come from a read taken under the payrun lock.
		p, err := s.payrunRepo.GetPayslipByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if run.Status == payroll.PayrunStatusFinalized || p.IsFinalized() {
			return payroll.ErrPayslipFinalized
		}

		in := CalculationInput{
			BasicSalary:         p.BasicSalary,
			HRAPercentage:       p.HRAPercentage,
			DAPercentage:        p.DAPercentage,
			DaysWorked:          p.DaysWorked,
			WorkingDaysStandard: p.WorkingDays,
			LeaveTolerance:      s.settings.Policy.LeaveTolerance,
			PFRate:              s.settings.Policy.PFRate,
			ProfessionalTax:     p.ProfessionalTax,
			OtherAllowances:     p.OtherAllowances,
			OtherDeductions:     p.OtherDeductions,
			BonusAmount:         p.BonusAmount,
		}
		if req.OtherAllowances != nil {
			in.OtherAllowances = *req.OtherAllowances
		}
		if req.OtherDeductions != nil {
			in.OtherDeductions = *req.OtherDeductions
		}
		if req.BonusAmount != nil {
			in.BonusAmount = *req.BonusAmount
		}

		fig, err := Calculate(in)
		if err != nil {
			return err
		}
		applyFigures(&p, fig)

		if err := s.payrunRepo.UpdatePayslipAmounts(ctx, p); err != nil {
			return err
		}
		if _, err := s.payrunRepo.RecomputeTotals(ctx, run.ID); err != nil {
			return err
		}

		updated, err = s.payrunRepo.GetPayslipByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapToPayslipResponse(updated), nil
}

// VerifyPayslip recomputes the fingerprint from the stored figures. Drafts are never verified.
func (s *PayrollServiceImpl) VerifyPayslip(ctx context.Context, id string) (payroll.VerifyPayslipResponse, error) {
	p, err := s.payrunRepo.GetPayslipByID(ctx, id)
	if err != nil {
		return payroll.VerifyPayslipResponse{}, err
	}

	verified := VerifyFingerprint(p, p.Month, p.Year)
	s.metrics.ObserveVerification(verified)

	return payroll.VerifyPayslipResponse{
		Verified:   verified,
		PayslipID:  p.ID,
		EmployeeID: p.EmployeeID,
		Month:      p.Month,
		Year:       p.Year,
		NetSalary:  payroll.NewMoney(p.NetSalary),
	}, nil
}

// RenderPayslipPDF renders the payslip document. Finalized payslips are
// immutable, so their documents are cached in file storage by fingerprint.
func (s *PayrollServiceImpl) RenderPayslipPDF(ctx context.Context, id string) (payroll.PayslipDocument, error) {
	p, err := s.payrunRepo.GetPayslipByID(ctx, id)
	if err != nil {
		return payroll.PayslipDocument{}, err
	}

	doc := payroll.PayslipDocument{
		FileName:    fmt.Sprintf("payslip_%s_%02d_%d.pdf", p.EmployeeID, p.Month, p.Year),
		ContentType: "application/pdf",
	}

	cacheKey := ""
	if p.IsFinalized() && p.Fingerprint != nil && s.fileStorage != nil {
		cacheKey = fmt.Sprintf("payslips/%d/%02d/%s-%s.pdf", p.Year, p.Month, p.ID, *p.Fingerprint)
		if content, ok := s.cachedDocument(ctx, cacheKey); ok {
			doc.Content = content
			return doc, nil
		}
	}

	content, err := s.renderer.Render(p, s.settings.Currency)
	if err != nil {
		return payroll.PayslipDocument{}, err
	}
	doc.Content = content

	if cacheKey != "" {
		if _, err := s.fileStorage.Upload(ctx, bytes.NewReader(content), cacheKey); err != nil {
			s.logger.WarnContext(ctx, "failed to cache payslip document",
				slog.String("payslip_id", p.ID), slog.String("error", err.Error()))
		}
	}

	return doc, nil
}

func (s *PayrollServiceImpl) cachedDocument(ctx context.Context, key string) ([]byte, bool) {
	rc, err := s.fileStorage.Download(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrFileNotFound) {
			s.logger.WarnContext(ctx, "failed to read cached payslip document",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return content, true
}

// ========== HELPERS ==========

// missingEmployees reports requested ids the directory did not return as eligible.
func missingEmployees(requested []string, eligible []payroll.Employee) []payroll.EmployeeFailure {
	found := make(map[string]struct{}, len(eligible))
	for _, emp := range eligible {
		found[emp.ID] = struct{}{}
	}

	var failures []payroll.EmployeeFailure
	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := found[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		failures = append(failures, payroll.EmployeeFailure{
			EmployeeID: id,
			Reason:     fmt.Errorf("%w or not eligible for payroll", payroll.ErrEmployeeNotFound).Error(),
		})
	}
	return failures
}

func validatePolicy(p payroll.Policy) error {
	if p.PFRate.IsNegative() || p.ProfessionalTax.IsNegative() {
		return fmt.Errorf("%w: pf rate and professional tax must be non-negative", payroll.ErrPolicy)
	}
	if p.WorkingDaysStandard <= 0 {
		return fmt.Errorf("%w: working days standard must be positive", payroll.ErrPolicy)
	}
	return nil
}

func newPayslip(payrunID string, c calculation) payroll.Payslip {
	p := payroll.Payslip{
		PayrunID:      payrunID,
		EmployeeID:    c.employee.ID,
		HRAPercentage: c.input.HRAPercentage,
		DAPercentage:  c.input.DAPercentage,
		LeavesTaken:   c.facts.DaysOnLeave,
		Status:        payroll.PayslipStatusDraft,
	}
	applyFigures(&p, c.figures)
	return p
}

func applyFigures(p *payroll.Payslip, fig Figures) {
	p.BasicSalary = fig.BasicSalary
	p.HRA = fig.HRA
	p.DA = fig.DA
	p.OtherAllowances = fig.OtherAllowances
	p.BonusAmount = fig.BonusAmount
	p.AbsenceDeduction = fig.AbsenceDeduction
	p.GrossSalary = fig.GrossSalary
	p.PFDeduction = fig.PFDeduction
	p.ProfessionalTax = fig.ProfessionalTax
	p.OtherDeductions = fig.OtherDeductions
	p.TotalDeductions = fig.TotalDeductions
	p.NetSalary = fig.NetSalary
	p.WorkingDays = fig.WorkingDays
	p.DaysWorked = fig.DaysWorked
}

func totalsOf(run payroll.Payrun) payroll.PayrunTotals {
	return payroll.PayrunTotals{
		TotalEmployees:   run.TotalEmployees,
		TotalGrossSalary: payroll.NewMoney(run.TotalGrossSalary),
		TotalDeductions:  payroll.NewMoney(run.TotalDeductions),
		TotalNetSalary:   payroll.NewMoney(run.TotalNetSalary),
	}
}

func mapToPayrunResponse(run payroll.Payrun) payroll.PayrunResponse {
	return payroll.PayrunResponse{
		ID:               run.ID,
		Month:            run.Month,
		Year:             run.Year,
		Status:           string(run.Status),
		TotalEmployees:   run.TotalEmployees,
		TotalGrossSalary: payroll.NewMoney(run.TotalGrossSalary),
		TotalDeductions:  payroll.NewMoney(run.TotalDeductions),
		TotalNetSalary:   payroll.NewMoney(run.TotalNetSalary),
		CreatedAt:        run.CreatedAt,
		UpdatedAt:        run.UpdatedAt,
		FinalizedAt:      run.FinalizedAt,
	}
}

func mapToPayslipResponse(p payroll.Payslip) payroll.PayslipResponse {
	return payroll.PayslipResponse{
		ID:               p.ID,
		PayrunID:         p.PayrunID,
		EmployeeID:       p.EmployeeID,
		EmployeeName:     p.EmployeeName,
		EmployeeEmail:    p.EmployeeEmail,
		Designation:      p.Designation,
		Department:       p.Department,
		Month:            p.Month,
		Year:             p.Year,
		BasicSalary:      payroll.NewMoney(p.BasicSalary),
		HRAPercentage:    p.HRAPercentage,
		DAPercentage:     p.DAPercentage,
		HRA:              payroll.NewMoney(p.HRA),
		DA:               payroll.NewMoney(p.DA),
		OtherAllowances:  payroll.NewMoney(p.OtherAllowances),
		BonusAmount:      payroll.NewMoney(p.BonusAmount),
		AbsenceDeduction: payroll.NewMoney(p.AbsenceDeduction),
		GrossSalary:      payroll.NewMoney(p.GrossSalary),
		PFDeduction:      payroll.NewMoney(p.PFDeduction),
		ProfessionalTax:  payroll.NewMoney(p.ProfessionalTax),
		OtherDeductions:  payroll.NewMoney(p.OtherDeductions),
		TotalDeductions:  payroll.NewMoney(p.TotalDeductions),
		NetSalary:        payroll.NewMoney(p.NetSalary),
		WorkingDays:      p.WorkingDays,
		DaysWorked:       p.DaysWorked,
		LeavesTaken:      p.LeavesTaken,
		Fingerprint:      p.Fingerprint,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func mapToPayslipResponses(payslips []payroll.Payslip) []payroll.PayslipResponse {
	responses := make([]payroll.PayslipResponse, len(payslips))
	for i, p := range payslips {
		responses[i] = mapToPayslipResponse(p)
	}
	return responses
}
