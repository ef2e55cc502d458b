package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/workzen/hrms-backend-go/internal/app"
	"github.com/workzen/hrms-backend-go/internal/config"
	"github.com/workzen/hrms-backend-go/internal/domain/payroll"
	"github.com/workzen/hrms-backend-go/internal/domain/user"
	"github.com/workzen/hrms-backend-go/internal/pkg/database"
	"github.com/workzen/hrms-backend-go/internal/pkg/jwt"
)

var errVerificationFailed = errors.New("payslip failed verification")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "payrollctl",
		Short: "Operate the payroll engine",
		Long: `Operator commands for the payroll engine.

Configuration is read from .env and the environment, the same way the API server reads it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newGenerateCmd(),
		newFinalizeCmd(),
		newVerifyCmd(),
		newTokenCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			version, err := database.RunMigrations(cfg.DatabaseURL())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database at migration version %d\n", version)
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var month, year int
	var employeeIDs []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate draft payslips for a period",
		Long: `Generate draft payslips for every eligible employee in a period.

Re-running for the same period only adds payslips for employees that do not have one yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPayroll(cmd, func(svc payroll.PayrollService) (any, error) {
				return svc.GeneratePayroll(cmd.Context(), payroll.GeneratePayrollRequest{
					Month:       month,
					Year:        year,
					EmployeeIDs: employeeIDs,
				})
			})
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "payroll month (1-12)")
	cmd.Flags().IntVar(&year, "year", 0, "payroll year")
	cmd.Flags().StringSliceVar(&employeeIDs, "employee", nil, "restrict generation to these employee IDs")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newFinalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <payrun-id>",
		Short: "Fingerprint every payslip of a payrun and lock it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPayroll(cmd, func(svc payroll.PayrollService) (any, error) {
				return svc.FinalizePayrun(cmd.Context(), args[0])
			})
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <payslip-id>",
		Short: "Check a payslip against its fingerprint",
		Long:  `Check a payslip against its fingerprint. Exits non-zero when verification fails.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var verified bool
			err := withPayroll(cmd, func(svc payroll.PayrollService) (any, error) {
				resp, err := svc.VerifyPayslip(cmd.Context(), args[0])
				verified = resp.Verified
				return resp, err
			})
			if err != nil {
				return err
			}
			if !verified {
				return errVerificationFailed
			}
			return nil
		},
	}
}

type tokenOutput struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	Role        string `json:"role"`
}

func newTokenCmd() *cobra.Command {
	var userID, role, employeeID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
			if err != nil {
				return err
			}

			identity := user.Identity{UserID: userID, Role: user.Role(role)}
			if employeeID != "" {
				identity.EmployeeID = &employeeID
			}
			token, expiresAt, err := jwtService.GenerateAccessToken(identity)
			if err != nil {
				return fmt.Errorf("%w: %q", err, role)
			}

			return writeJSON(cmd.OutOrStdout(), tokenOutput{AccessToken: token, ExpiresAt: expiresAt, Role: role})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID to embed in the token")
	cmd.Flags().StringVar(&role, "role", string(user.RoleEmployee), "admin, payroll_officer, hr_officer or employee")
	cmd.Flags().StringVar(&employeeID, "employee", "", "employee ID linked to the user")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// withPayroll wires the payroll service for one command and prints its result as JSON.
func withPayroll(cmd *cobra.Command, fn func(svc payroll.PayrollService) (any, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(os.Stderr, cfg.App)
	payrollApp, err := app.NewPayroll(cmd.Context(), cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer payrollApp.Close()

	result, err := fn(payrollApp.Service)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
