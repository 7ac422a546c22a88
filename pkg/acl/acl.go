// Package acl models per-role resource permissions and the checkbox views
// used to edit them.
package acl

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Permission lists the actions of a resource: those that may be granted and
// those currently granted.
type Permission struct {
	Resource       string   `json:"resource" yaml:"resource"`
	AllowedActions []string `json:"allowed_actions,omitempty" yaml:"allowed_actions,omitempty"`
	Actions        []string `json:"actions" yaml:"actions"`
}

// RolePermissions are all permissions of one role.
type RolePermissions struct {
	Role        string       `json:"role" yaml:"role"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`
}

// Grant is a resource with the actions granted on it.
type Grant struct {
	Resource string   `json:"resource" yaml:"resource"`
	Actions  []string `json:"actions" yaml:"actions"`
}

// TreeNode is a checkable tree entry: a resource or one of its actions.
type TreeNode struct {
	Title    string     `json:"title"`
	Key      string     `json:"key"`
	Children []TreeNode `json:"children,omitempty"`
}

// Key joins a resource and an action into a tree key.
func Key(resource, action string) string {
	return resource + "-" + action
}

// Find returns the permissions of role.
func Find(list []RolePermissions, role string) (*RolePermissions, bool) {
	for i := range list {
		if list[i].Role == role {
			return &list[i], true
		}
	}
	return nil, false
}

// BuildTree returns one node per resource with one child per allowed action.
func BuildTree(rp *RolePermissions) []TreeNode {
	if rp == nil {
		return nil
	}

	tree := make([]TreeNode, 0, len(rp.Permissions))
	for _, p := range rp.Permissions {
		n := TreeNode{Title: Humanize(p.Resource), Key: p.Resource}
		for _, a := range p.AllowedActions {
			n.Children = append(n.Children, TreeNode{Title: Humanize(a), Key: Key(p.Resource, a)})
		}
		tree = append(tree, n)
	}

	return tree
}

// CheckedKeys returns the tree keys of every granted action.
func CheckedKeys(rp *RolePermissions) []string {
	if rp == nil {
		return nil
	}

	var keys []string
	for _, p := range rp.Permissions {
		for _, a := range p.Actions {
			keys = append(keys, Key(p.Resource, a))
		}
	}

	return keys
}

// ApplyChecked turns a set of checked tree keys back into grants. Only
// allowed actions are considered and resources left with none are omitted.
func ApplyChecked(rp *RolePermissions, checked []string) []Grant {
	if rp == nil {
		return nil
	}

	var grants []Grant
	for _, p := range rp.Permissions {
		var actions []string
		for _, a := range p.AllowedActions {
			if slices.Contains(checked, Key(p.Resource, a)) {
				actions = append(actions, a)
			}
		}
		if len(actions) > 0 {
			grants = append(grants, Grant{Resource: p.Resource, Actions: actions})
		}
	}

	return grants
}

// Humanize turns identifiers like "resource-mapping" or "sub_region" into
// display titles ("Resource Mapping", "Sub Region").
func Humanize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return ""
	}

	return cases.Title(language.Und).String(strings.ToLower(strings.Join(words, " ")))
}
