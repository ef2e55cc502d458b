package user

type Role string

const (
	RoleAdmin          Role = "admin"           // Full access
	RolePayrollOfficer Role = "payroll_officer" // Runs and finalizes payroll
	RoleHROfficer      Role = "hr_officer"      // Reads payroll
	RoleEmployee       Role = "employee"        // Own payslips only
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// Identity is the authenticated caller as carried in an access token.
type Identity struct {
	UserID     string
	EmployeeID *string
	Role       Role
}

// IsPayrollAdmin checks if the caller may manage every payslip
func (i Identity) IsPayrollAdmin() bool {
	return HasPermission(i.Role, PermissionPayslipViewAll)
}

// OwnsEmployee checks if the caller is linked to the given employee record
func (i Identity) OwnsEmployee(employeeID string) bool {
	return i.EmployeeID != nil && *i.EmployeeID == employeeID
}
