package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. Its
// transactor snapshots state and restores it when fn fails.
type fakeStore struct {
	mu        sync.Mutex
	seq       int
	payruns   map[string]payroll.Payrun
	payslips  map[string]payroll.Payslip
	employees []payroll.Employee
	facts     map[string]payroll.AttendanceFacts
	extras    map[string]payroll.Extras
	lockHeld  bool
	createErr error

	// One-shot hooks that let a test interleave a competing writer.
	beforeLock   func()
	beforeCreate func()
}

func takeHook(f *fakeStore, hook *func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := *hook
	*hook = nil
	return h
}

func newFakeStore(employees ...payroll.Employee) *fakeStore {
	return &fakeStore{
		payruns:   map[string]payroll.Payrun{},
		payslips:  map[string]payroll.Payslip{},
		employees: employees,
		facts:     map[string]payroll.AttendanceFacts{},
		extras:    map[string]payroll.Extras{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%04d", prefix, f.seq)
}

type fakeSnapshot struct {
	seq      int
	payruns  map[string]payroll.Payrun
	payslips map[string]payroll.Payslip
}

func (f *fakeStore) snapshot() fakeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := fakeSnapshot{seq: f.seq, payruns: map[string]payroll.Payrun{}, payslips: map[string]payroll.Payslip{}}
	for k, v := range f.payruns {
		s.payruns[k] = v
	}
	for k, v := range f.payslips {
		s.payslips[k] = v
	}
	return s
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq, f.payruns, f.payslips = s.seq, s.payruns, s.payslips
}

func (f *fakeStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// ========== EmployeeDirectory ==========

func (f *fakeStore) ListEligible(ctx context.Context, ids []string) ([]payroll.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []payroll.Employee
	for _, e := range f.employees {
		if !e.IsActive || !e.BasicSalary.IsPositive() {
			continue
		}
		if len(ids) > 0 && !wanted[e.ID] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) employeeName(id string) string {
	for _, e := range f.employees {
		if e.ID == id {
			return e.FullName
		}
	}
	return ""
}

// ========== AttendanceLedger / BonusPolicy ==========

func (f *fakeStore) Facts(ctx context.Context, employeeIDs []string, month, year int) (map[string]payroll.AttendanceFacts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]payroll.AttendanceFacts{}
	for _, id := range employeeIDs {
		if facts, ok := f.facts[id]; ok {
			out[id] = facts
		}
	}
	return out, nil
}

func (f *fakeStore) Extras(ctx context.Context, employeeIDs []string, month, year int) (map[string]payroll.Extras, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]payroll.Extras{}
	for _, id := range employeeIDs {
		if extras, ok := f.extras[id]; ok {
			out[id] = extras
		}
	}
	return out, nil
}

// ========== PayrunRepository ==========

func (f *fakeStore) EnsurePayrun(ctx context.Context, month, year int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.payruns {
		if r.Month == month && r.Year == year {
			return r.ID, nil
		}
	}
	id := f.nextID("payrun")
	f.payruns[id] = payroll.Payrun{ID: id, Month: month, Year: year, Status: payroll.PayrunStatusDraft, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) LockPayrun(ctx context.Context, id string) (payroll.Payrun, error) {
	if hook := takeHook(f, &f.beforeLock); hook != nil {
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.payruns[id]
	if !ok {
		return payroll.Payrun{}, payroll.ErrPayrunNotFound
	}
	if f.lockHeld {
		return payroll.Payrun{}, payroll.ErrConcurrencyConflict
	}
	return r, nil
}

func (f *fakeStore) GetPayrunByID(ctx context.Context, id string) (payroll.Payrun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.payruns[id]
	if !ok {
		return payroll.Payrun{}, payroll.ErrPayrunNotFound
	}
	return r, nil
}

func (f *fakeStore) ListPayruns(ctx context.Context, filter payroll.PayrunFilter) ([]payroll.Payrun, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Payrun
	for _, r := range f.payruns {
		if filter.Year != nil && r.Year != *filter.Year {
			continue
		}
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) UpdatePayrunStatus(ctx context.Context, id string, status payroll.PayrunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.payruns[id]
	if !ok {
		return payroll.ErrPayrunNotFound
	}
	r.Status = status
	f.payruns[id] = r
	return nil
}

func (f *fakeStore) MarkPayrunFinalized(ctx context.Context, id string, finalizedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.payruns[id]
	if r.Status == payroll.PayrunStatusFinalized {
		return payroll.ErrAlreadyFinalized
	}
	r.Status = payroll.PayrunStatusFinalized
	r.FinalizedAt = &finalizedAt
	f.payruns[id] = r
	return nil
}

func (f *fakeStore) RecomputeTotals(ctx context.Context, id string) (payroll.Payrun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.payruns[id]
	if !ok {
		return payroll.Payrun{}, payroll.ErrPayrunNotFound
	}
	r.TotalEmployees = 0
	r.TotalGrossSalary, r.TotalDeductions, r.TotalNetSalary = decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range f.payslips {
		if p.PayrunID != id {
			continue
		}
		r.TotalEmployees++
		r.TotalGrossSalary = r.TotalGrossSalary.Add(p.GrossSalary)
		r.TotalDeductions = r.TotalDeductions.Add(p.TotalDeductions)
		r.TotalNetSalary = r.TotalNetSalary.Add(p.NetSalary)
	}
	f.payruns[id] = r
	return r, nil
}

func (f *fakeStore) DeletePayrun(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payruns[id]; !ok {
		return payroll.ErrPayrunNotFound
	}
	delete(f.payruns, id)
	for k, p := range f.payslips {
		if p.PayrunID == id {
			delete(f.payslips, k)
		}
	}
	return nil
}

func (f *fakeStore) ListPayslipEmployeeIDs(ctx context.Context, payrunID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, p := range f.payslips {
		if p.PayrunID == payrunID {
			ids = append(ids, p.EmployeeID)
		}
	}
	return ids, nil
}

func (f *fakeStore) CreatePayslip(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	if hook := takeHook(f, &f.beforeCreate); hook != nil {
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return payroll.Payslip{}, f.createErr
	}
	for _, existing := range f.payslips {
		if existing.PayrunID == p.PayrunID && existing.EmployeeID == p.EmployeeID {
			return payroll.Payslip{}, payroll.ErrPayslipExists
		}
	}
	p.ID = f.nextID("payslip")
	p.Status = payroll.PayslipStatusDraft
	f.payslips[p.ID] = p
	return p, nil
}

// joined fills the fields the SQL repository reads through joins.
func (f *fakeStore) joined(p payroll.Payslip) payroll.Payslip {
	r := f.payruns[p.PayrunID]
	p.Month, p.Year = r.Month, r.Year
	p.EmployeeName = f.employeeName(p.EmployeeID)
	return p
}

func (f *fakeStore) GetPayslipByID(ctx context.Context, id string) (payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return f.joined(p), nil
}

func (f *fakeStore) GetPayslipByEmployee(ctx context.Context, payrunID, employeeID string) (payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payslips {
		if p.PayrunID == payrunID && p.EmployeeID == employeeID {
			return f.joined(p), nil
		}
	}
	return payroll.Payslip{}, payroll.ErrPayslipNotFound
}

func (f *fakeStore) ListPayslipsByPayrun(ctx context.Context, payrunID string) ([]payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range f.payslips {
		if p.PayrunID == payrunID {
			out = append(out, f.joined(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakeStore) ListPayslipsByEmployee(ctx context.Context, employeeID string, filter payroll.EmployeePayslipFilter) ([]payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range f.payslips {
		if p.EmployeeID != employeeID {
			continue
		}
		p = f.joined(p)
		if filter.Month != nil && p.Month != *filter.Month {
			continue
		}
		if filter.Year != nil && p.Year != *filter.Year {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdatePayslipAmounts(ctx context.Context, p payroll.Payslip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.payslips[p.ID]
	if !ok || stored.IsFinalized() {
		return payroll.ErrPayslipFinalized
	}
	stored.OtherAllowances = p.OtherAllowances
	stored.BonusAmount = p.BonusAmount
	stored.AbsenceDeduction = p.AbsenceDeduction
	stored.GrossSalary = p.GrossSalary
	stored.PFDeduction = p.PFDeduction
	stored.ProfessionalTax = p.ProfessionalTax
	stored.OtherDeductions = p.OtherDeductions
	stored.TotalDeductions = p.TotalDeductions
	stored.NetSalary = p.NetSalary
	f.payslips[p.ID] = stored
	return nil
}

func (f *fakeStore) FinalizePayslip(ctx context.Context, id string, fingerprint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payslips[id]
	if !ok || p.IsFinalized() {
		return payroll.ErrPayslipFinalized
	}
	p.Fingerprint = &fingerprint
	p.Status = payroll.PayslipStatusFinalized
	f.payslips[id] = p
	return nil
}

// tamper rewrites a stored net salary the way a direct SQL update would.
func (f *fakeStore) tamper(id string, net decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.payslips[id]
	p.NetSalary = net
	f.payslips[id] = p
}

type countingRenderer struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRenderer) Render(p payroll.Payslip, currency string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return []byte(fmt.Sprintf("%%PDF-1.3 %s %s %s", p.ID, p.NetSalary.StringFixed(2), currency)), nil
}
