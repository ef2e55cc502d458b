package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/domain/user"
	"github.com/workzen/hrms-backend-go/internal/handler/http/middleware"
	"github.com/workzen/hrms-backend-go/internal/handler/http/response"
	"github.com/workzen/hrms-backend-go/internal/pkg/validator"
)

type PayrollHandler interface {
	// Payruns
	GeneratePayroll(w http.ResponseWriter, r *http.Request)
	ListPayruns(w http.ResponseWriter, r *http.Request)
	GetPayrun(w http.ResponseWriter, r *http.Request)
	DeletePayrun(w http.ResponseWriter, r *http.Request)
	FinalizePayrun(w http.ResponseWriter, r *http.Request)

	// Payslips
	ListPayslips(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)
	UpdatePayslip(w http.ResponseWriter, r *http.Request)
	VerifyPayslip(w http.ResponseWriter, r *http.Request)
	DownloadPayslipPDF(w http.ResponseWriter, r *http.Request)

	// Self service
	ListMyPayslips(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// uuidParam reads a path parameter that must be a UUID.
func uuidParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if !validator.IsValidUUID(value) {
		return "", validator.ValidationErrors{{Field: name, Message: "must be a valid UUID"}}
	}
	return value, nil
}

// queryInt parses an optional integer query parameter, collecting failures into errs.
func queryInt(r *http.Request, name string, errs *validator.ValidationErrors) *int {
	n, err := validator.ParseOptionalInt(name, r.URL.Query().Get(name))
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		*errs = append(*errs, verrs...)
	}
	return n
}

// ========== PAYRUNS ==========

func (h *payrollHandlerImpl) GeneratePayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.GeneratePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.GeneratePayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll generated", result)
}

func (h *payrollHandlerImpl) ListPayruns(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	filter := payroll.PayrunFilter{
		Month: queryInt(r, "month", &errs),
		Year:  queryInt(r, "year", &errs),
	}
	if page := queryInt(r, "page", &errs); page != nil {
		filter.Page = *page
	}
	if limit := queryInt(r, "limit", &errs); limit != nil {
		filter.Limit = *limit
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	result, err := h.payrollService.ListPayruns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Payruns, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *payrollHandlerImpl) GetPayrun(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetPayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DeletePayrun(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.payrollService.DeletePayrun(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun deleted successfully", nil)
}

func (h *payrollHandlerImpl) FinalizePayrun(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.FinalizePayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun finalized", result)
}

// ========== PAYSLIPS ==========

func (h *payrollHandlerImpl) ListPayslips(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ListPayslips(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	payrunID, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	employeeID, err := uuidParam(r, "employeeId")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetPayslip(r.Context(), payrunID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdatePayslip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.UpdatePayslipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.UpdatePayslip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) VerifyPayslip(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.VerifyPayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DownloadPayslipPDF serves the payslip document to its employee or to payroll staff.
func (h *payrollHandlerImpl) DownloadPayslipPDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	payslip, err := h.payrollService.GetPayslipByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !identity.IsPayrollAdmin() && !identity.OwnsEmployee(payslip.EmployeeID) {
		// Hide other employees' payslips entirely.
		response.HandleError(w, payroll.ErrPayslipNotFound)
		return
	}

	doc, err := h.payrollService.RenderPayslipPDF(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, doc.FileName, doc.ContentType, doc.Content)
}

// ========== SELF SERVICE ==========

func (h *payrollHandlerImpl) ListMyPayslips(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	if identity.EmployeeID == nil {
		response.HandleError(w, user.ErrEmployeeLinkRequired)
		return
	}

	var errs validator.ValidationErrors
	filter := payroll.EmployeePayslipFilter{
		Month: queryInt(r, "month", &errs),
		Year:  queryInt(r, "year", &errs),
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.payrollService.ListEmployeePayslips(r.Context(), *identity.EmployeeID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
