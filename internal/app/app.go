package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/workzen/hrms-backend-go/internal/config"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/pkg/database"
	"github.com/workzen/hrms-backend-go/internal/pkg/metrics"
	"github.com/workzen/hrms-backend-go/internal/pkg/pdf"
	"github.com/workzen/hrms-backend-go/internal/pkg/storage"
	"github.com/workzen/hrms-backend-go/internal/repository/postgresql"
	payrollService "github.com/workzen/hrms-backend-go/internal/service/payroll"
)

const (
	Name    = "workzen-hrms"
	Version = "v1.0.0"
)

// ParseLogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func ParseLogLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the JSON logger in the ECS layout used for request logs.
func NewLogger(w io.Writer, cfg config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLogLevel(cfg.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", Name),
		slog.String("version", Version),
		slog.String("env", cfg.Env),
	)
}

// Payroll holds the wired payroll service and the resources it owns.
type Payroll struct {
	DB      *database.DB
	Service payroll.PayrollService
	Metrics *metrics.PayrollMetrics
}

func NewPayroll(ctx context.Context, cfg *config.Config, logger *slog.Logger, registerer prometheus.Registerer) (*Payroll, error) {
	if cfg.App.AutoMigrate {
		version, err := database.RunMigrations(cfg.DatabaseURL())
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "database migrated", slog.Uint64("version", uint64(version)))
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	payrollMetrics := metrics.NewPayrollMetrics(registerer)
	svc := payrollService.NewPayrollService(
		postgresql.NewTransactor(db),
		postgresql.NewPayrunRepository(db),
		postgresql.NewEmployeeDirectory(db),
		postgresql.NewAttendanceLedger(db),
		postgresql.NewBonusPolicy(db),
		pdf.NewPayslipRenderer(cfg.Payroll.CompanyName),
		fileStorage,
		payrollService.Settings{
			Policy:          Policy(cfg.Payroll),
			Workers:         cfg.Payroll.GenerateWorkers,
			GenerateTimeout: cfg.Payroll.GenerateTimeout,
			Currency:        cfg.Payroll.Currency,
		},
		logger,
		payrollMetrics,
	)

	return &Payroll{DB: db, Service: svc, Metrics: payrollMetrics}, nil
}

func (p *Payroll) Close() {
	p.DB.Close()
}

// Policy extracts the calculator constants from the payroll configuration.
func Policy(cfg config.PayrollConfig) payroll.Policy {
	return payroll.Policy{
		PFRate:              cfg.PFRate,
		ProfessionalTax:     cfg.ProfessionalTax,
		WorkingDaysStandard: cfg.WorkingDaysStandard,
		LeaveTolerance:      cfg.LeaveTolerance,
		DefaultHRAPct:       cfg.DefaultHRAPct,
		DefaultDAPct:        cfg.DefaultDAPct,
	}
}
