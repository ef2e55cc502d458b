package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workzen/hrms-backend-go/internal/domain/user"
	"github.com/workzen/hrms-backend-go/internal/pkg/jwt"
)

const cliTestSecret = "cli-test-secret"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", cliTestSecret)
	t.Setenv("JWT_ACCESS_EXPIRATION_TIME", "2h")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestTokenCmd_IssuesVerifiableToken(t *testing.T) {
	employeeID := "0a1f6c2e-1111-4c1e-9a6b-000000000001"

	// Act
	out, err := runCLI(t, "token", "--user", "ops-1", "--role", "payroll_officer", "--employee", employeeID)

	// Assert
	require.NoError(t, err)
	var got tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "payroll_officer", got.Role)

	jwtService, err := jwt.NewJWTService(cliTestSecret, "2h")
	require.NoError(t, err)
	token, err := jwtService.JWTAuth().Decode(got.AccessToken)
	require.NoError(t, err)
	claims, err := token.AsMap(t.Context())
	require.NoError(t, err)

	identity, err := jwt.IdentityFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", identity.UserID)
	assert.Equal(t, user.RolePayrollOfficer, identity.Role)
	require.NotNil(t, identity.EmployeeID)
	assert.Equal(t, employeeID, *identity.EmployeeID)
}

func TestTokenCmd_RejectsUnknownRole(t *testing.T) {
	_, err := runCLI(t, "token", "--user", "ops-1", "--role", "owner")

	assert.ErrorIs(t, err, user.ErrInvalidRole)
}

func TestTokenCmd_RequiresUser(t *testing.T) {
	_, err := runCLI(t, "token", "--role", "admin")

	assert.Error(t, err)
}

func TestCommands_ValidateArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "generate without period", args: []string{"generate"}},
		{name: "generate without year", args: []string{"generate", "--month", "6"}},
		{name: "finalize without payrun", args: []string{"finalize"}},
		{name: "verify with extra args", args: []string{"verify", "a", "b"}},
		{name: "migrate with args", args: []string{"migrate", "now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
