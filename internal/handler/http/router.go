package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/workzen/hrms-backend-go/internal/domain/user"
	"github.com/workzen/hrms-backend-go/internal/handler/http/middleware"
	"github.com/workzen/hrms-backend-go/internal/pkg/jwt"
)

type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	CORSOrigins    []string
	MetricsHandler http.Handler
}

func NewRouter(JWTService jwt.Service, payrollHandler PayrollHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/payruns", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollManage)).
						With(chiMiddleware.AllowContentType("application/json")).
						Post("/generate", payrollHandler.GeneratePayroll)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollView))
						r.Get("/", payrollHandler.ListPayruns)
						r.Get("/{id}", payrollHandler.GetPayrun)
						r.Get("/{id}/payslips", payrollHandler.ListPayslips)
						r.Get("/{id}/payslips/{employeeId}", payrollHandler.GetPayslip)
					})

					r.With(middleware.RequirePermission(user.PermissionPayrollManage)).
						Delete("/{id}", payrollHandler.DeletePayrun)
					r.With(middleware.RequirePermission(user.PermissionPayrunFinalize)).
						Post("/{id}/finalize", payrollHandler.FinalizePayrun)
				})

				r.Route("/payslips/{id}", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayslipAdjust)).
						With(chiMiddleware.AllowContentType("application/json")).
						Patch("/", payrollHandler.UpdatePayslip)
					r.With(middleware.RequirePermission(user.PermissionPayslipVerify)).
						Get("/verify", payrollHandler.VerifyPayslip)
					// Ownership is checked by the handler.
					r.With(middleware.RequirePermission(user.PermissionPayslipViewOwn)).
						Get("/pdf", payrollHandler.DownloadPayslipPDF)
				})

				r.With(middleware.RequirePermission(user.PermissionPayslipViewOwn)).
					Get("/my/payslips", payrollHandler.ListMyPayslips)
			})
		})
	})
	return r
}
