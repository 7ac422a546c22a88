package acl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	resources = []string{"users", "menus", "reports"}
	actions   = []string{"create", "read", "update", "delete"}
)

func TestNewMatrix(t *testing.T) {
	m := NewMatrix("manager", resources, actions)

	assert.Equal(t, "manager", m.Role())
	assert.Equal(t, resources, m.Resources())
	assert.Equal(t, actions, m.Actions())
	for _, r := range resources {
		assert.False(t, m.Enabled(r))
		for _, a := range actions {
			assert.False(t, m.Checked(r, a))
		}
	}
	assert.Empty(t, m.Grants())
}

func TestMatrixFor(t *testing.T) {
	rp := &RolePermissions{Role: "admin", Permissions: []Permission{
		{Resource: "menus", Actions: []string{"read", "export"}},
		{Resource: "audit", Actions: []string{"read"}},
	}}

	m := MatrixFor(rp, resources, actions)

	assert.Equal(t, "admin", m.Role())
	assert.Equal(t, []string{"users", "menus", "reports", "audit"}, m.Resources())
	assert.Equal(t, []string{"create", "read", "update", "delete", "export"}, m.Actions())
	assert.False(t, m.Enabled("users"))
	assert.True(t, m.Enabled("menus"))
	assert.True(t, m.Checked("menus", "export"))

	assert.Equal(t, []Grant{
		{Resource: "menus", Actions: []string{"read", "export"}},
		{Resource: "audit", Actions: []string{"read"}},
	}, m.Grants())
}

func TestMatrixFor_NilPermissions(t *testing.T) {
	m := MatrixFor(nil, resources, actions)
	assert.Equal(t, "", m.Role())
	assert.Empty(t, m.Grants())
}

func TestMatrix_Toggles(t *testing.T) {
	m := NewMatrix("manager", resources, actions)

	m.ToggleAction("reports", "read", true)
	assert.True(t, m.Enabled("reports"), "toggling an action enables its resource")

	m.ToggleResource("users", true)
	m.ToggleAction("users", "update", true)
	m.ToggleAction("users", "create", true)
	m.ToggleAction("users", "create", false)

	assert.Equal(t, []Grant{
		{Resource: "users", Actions: []string{"update"}},
		{Resource: "reports", Actions: []string{"read"}},
	}, m.Grants())

	m.ToggleResource("users", false)
	assert.Equal(t, []Grant{{Resource: "reports", Actions: []string{"read"}}}, m.Grants())
	assert.True(t, m.Checked("users", "update"), "disabling a row keeps its boxes")

	m.ToggleResource("users", true)
	assert.Len(t, m.Grants(), 2)
}

func TestMatrix_EnabledWithoutActions(t *testing.T) {
	m := NewMatrix("manager", resources, actions)
	m.ToggleResource("menus", true)

	assert.Equal(t, []Grant{{Resource: "menus", Actions: []string{}}}, m.Grants())
}

func TestMatrix_Mapping(t *testing.T) {
	m := NewMatrix("manager", resources, actions)
	m.ToggleAction("menus", "read", true)

	b, err := json.Marshal(m.Mapping())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"role": "manager",
		"mappedPermissions": [{"resource": "menus", "actions": ["read"]}]
	}`, string(b))
}

func TestMatrix_ResourcesIsACopy(t *testing.T) {
	m := NewMatrix("manager", resources, actions)
	got := m.Resources()
	got[0] = "changed"
	assert.Equal(t, "users", m.Resources()[0])
}
