package user

type Permission string

const (
	// Self service
	PermissionPayslipViewOwn Permission = "payslip.view_own"
	PermissionPayslipVerify  Permission = "payslip.verify"

	// Payroll
	PermissionPayrollView    Permission = "payroll.view"
	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionPayslipViewAll Permission = "payslip.view_all"
	PermissionPayslipAdjust  Permission = "payslip.adjust"
	PermissionPayrunFinalize Permission = "payrun.finalize"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionPayslipViewOwn,
		PermissionPayslipVerify,
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionPayslipViewAll,
		PermissionPayslipAdjust,
		PermissionPayrunFinalize,
	},
	RolePayrollOfficer: {
		PermissionPayslipViewOwn,
		PermissionPayslipVerify,
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionPayslipViewAll,
		PermissionPayslipAdjust,
		PermissionPayrunFinalize,
	},
	RoleHROfficer: {
		// Read-only payroll access
		PermissionPayslipViewOwn,
		PermissionPayslipVerify,
		PermissionPayrollView,
	},
	RoleEmployee: {
		PermissionPayslipViewOwn,
		PermissionPayslipVerify,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
