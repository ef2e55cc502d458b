package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Storage  StorageConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
	AutoMigrate bool
}

type StorageConfig struct {
	Type     string
	BasePath string
}

// PayrollConfig holds the statutory constants and batch limits used by payroll generation.
type PayrollConfig struct {
	PFRate              decimal.Decimal
	ProfessionalTax     decimal.Decimal
	WorkingDaysStandard int
	LeaveTolerance      int
	DefaultHRAPct       decimal.Decimal
	DefaultDAPct        decimal.Decimal
	GenerateWorkers     int
	GenerateTimeout     time.Duration
	RefreshInterval     time.Duration
	Currency            string
	CompanyName         string
}

func Load() (*Config, error) {
	// .env is optional; real deployments pass the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "workzen_hrms"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	autoMigrate, err := strconv.ParseBool(getEnv("APP_AUTO_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_AUTO_MIGRATE: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("APP_CORS_ORIGINS", "http://localhost:3000"),
		AutoMigrate: autoMigrate,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./storage"),
	}

	payrollCfg, err := loadPayroll()
	if err != nil {
		return nil, err
	}
	config.Payroll = payrollCfg

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadPayroll() (PayrollConfig, error) {
	var cfg PayrollConfig
	var err error

	if cfg.PFRate, err = getEnvDecimal("PAYROLL_PF_RATE", "0.12"); err != nil {
		return cfg, err
	}
	if cfg.ProfessionalTax, err = getEnvDecimal("PAYROLL_PROFESSIONAL_TAX", "200.00"); err != nil {
		return cfg, err
	}
	if cfg.DefaultHRAPct, err = getEnvDecimal("PAYROLL_DEFAULT_HRA_PCT", "40"); err != nil {
		return cfg, err
	}
	if cfg.DefaultDAPct, err = getEnvDecimal("PAYROLL_DEFAULT_DA_PCT", "20"); err != nil {
		return cfg, err
	}
	if cfg.WorkingDaysStandard, err = getEnvInt("PAYROLL_WORKING_DAYS", "26"); err != nil {
		return cfg, err
	}
	if cfg.LeaveTolerance, err = getEnvInt("PAYROLL_LEAVE_TOLERANCE", "5"); err != nil {
		return cfg, err
	}
	if cfg.GenerateWorkers, err = getEnvInt("PAYROLL_GENERATE_WORKERS", "8"); err != nil {
		return cfg, err
	}
	if cfg.GenerateTimeout, err = time.ParseDuration(getEnv("PAYROLL_GENERATE_TIMEOUT", "2m")); err != nil {
		return cfg, fmt.Errorf("invalid PAYROLL_GENERATE_TIMEOUT: %w", err)
	}
	if cfg.RefreshInterval, err = time.ParseDuration(getEnv("PAYROLL_REFRESH_INTERVAL", "0s")); err != nil {
		return cfg, fmt.Errorf("invalid PAYROLL_REFRESH_INTERVAL: %w", err)
	}
	cfg.Currency = getEnv("PAYROLL_CURRENCY", "INR")
	cfg.CompanyName = getEnv("PAYROLL_COMPANY_NAME", "WorkZen")

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if c.Storage.Type != "local" {
		return fmt.Errorf("unsupported STORAGE_TYPE: %s", c.Storage.Type)
	}
	return c.Payroll.Validate()
}

// Validate rejects payroll constants the calculator would refuse at run time.
func (p PayrollConfig) Validate() error {
	if p.PFRate.IsNegative() {
		return fmt.Errorf("PAYROLL_PF_RATE must be non-negative")
	}
	if p.ProfessionalTax.IsNegative() {
		return fmt.Errorf("PAYROLL_PROFESSIONAL_TAX must be non-negative")
	}
	if p.DefaultHRAPct.IsNegative() || p.DefaultDAPct.IsNegative() {
		return fmt.Errorf("PAYROLL_DEFAULT_HRA_PCT and PAYROLL_DEFAULT_DA_PCT must be non-negative")
	}
	if p.WorkingDaysStandard <= 0 {
		return fmt.Errorf("PAYROLL_WORKING_DAYS must be positive")
	}
	if p.LeaveTolerance < 0 {
		return fmt.Errorf("PAYROLL_LEAVE_TOLERANCE must be non-negative")
	}
	if p.GenerateWorkers <= 0 {
		return fmt.Errorf("PAYROLL_GENERATE_WORKERS must be positive")
	}
	if p.GenerateTimeout <= 0 {
		return fmt.Errorf("PAYROLL_GENERATE_TIMEOUT must be positive")
	}
	if p.RefreshInterval < 0 {
		return fmt.Errorf("PAYROLL_REFRESH_INTERVAL must be non-negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key, fallback string) (int, error) {
	value, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
