package acl

import (
	"slices"
)

// Mapping is the payload saved for a role's resource mapping.
type Mapping struct {
	Role              string  `json:"role" yaml:"role"`
	MappedPermissions []Grant `json:"mappedPermissions" yaml:"mappedPermissions"`
}

type cell struct {
	enabled bool
	actions map[string]bool
}

// Matrix is a resource by action checkbox grid for one role.
// Resources and actions keep the order they were first seen in.
type Matrix struct {
	role      string
	resources []string
	actions   []string
	cells     map[string]*cell
}

// NewMatrix returns a grid with every resource disabled and every action off.
func NewMatrix(role string, resources, actions []string) *Matrix {
	m := &Matrix{role: role, cells: make(map[string]*cell)}
	for _, a := range actions {
		m.addAction(a)
	}
	for _, r := range resources {
		m.cell(r)
	}
	return m
}

// MatrixFor returns a grid pre-filled from rp. Resources mapped in rp are
// enabled with their granted actions on.
func MatrixFor(rp *RolePermissions, resources, actions []string) *Matrix {
	role := ""
	if rp != nil {
		role = rp.Role
	}

	m := NewMatrix(role, resources, actions)
	if rp == nil {
		return m
	}

	for _, p := range rp.Permissions {
		c := m.cell(p.Resource)
		c.enabled = true
		for _, a := range p.Actions {
			m.addAction(a)
			c.actions[a] = true
		}
	}

	return m
}

// Role is the role the grid belongs to.
func (m *Matrix) Role() string {
	return m.role
}

// Resources returns the row order.
func (m *Matrix) Resources() []string {
	return slices.Clone(m.resources)
}

// Actions returns the column order.
func (m *Matrix) Actions() []string {
	return slices.Clone(m.actions)
}

// ToggleResource enables or disables a whole row. Action boxes are kept so
// re-enabling restores them.
func (m *Matrix) ToggleResource(resource string, on bool) {
	m.cell(resource).enabled = on
}

// ToggleAction sets one box. Touching an action enables its resource.
func (m *Matrix) ToggleAction(resource, action string, on bool) {
	m.addAction(action)
	c := m.cell(resource)
	c.enabled = true
	c.actions[action] = on
}

// Enabled reports whether the resource row is on.
func (m *Matrix) Enabled(resource string) bool {
	c, ok := m.cells[resource]
	return ok && c.enabled
}

// Checked reports whether the action box is on, regardless of the row.
func (m *Matrix) Checked(resource, action string) bool {
	c, ok := m.cells[resource]
	return ok && c.actions[action]
}

// Grants returns enabled resources with their checked actions.
// An enabled resource with no checked action is still returned, granting nothing.
func (m *Matrix) Grants() []Grant {
	grants := []Grant{}
	for _, r := range m.resources {
		c := m.cells[r]
		if !c.enabled {
			continue
		}

		g := Grant{Resource: r, Actions: []string{}}
		for _, a := range m.actions {
			if c.actions[a] {
				g.Actions = append(g.Actions, a)
			}
		}
		grants = append(grants, g)
	}
	return grants
}

// Mapping returns the save payload for the grid.
func (m *Matrix) Mapping() Mapping {
	return Mapping{Role: m.role, MappedPermissions: m.Grants()}
}

func (m *Matrix) cell(resource string) *cell {
	c, ok := m.cells[resource]
	if !ok {
		c = &cell{actions: make(map[string]bool)}
		m.cells[resource] = c
		m.resources = append(m.resources, resource)
	}
	return c
}

func (m *Matrix) addAction(a string) {
	if !slices.Contains(m.actions, a) {
		m.actions = append(m.actions, a)
	}
}
