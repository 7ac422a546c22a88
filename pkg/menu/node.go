package menu

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// NonNavigableLink marks a node that only expands and never navigates.
const NonNavigableLink = "#"

// Status is the active/inactive flag of a node.
// The zero value means the status was not set and is treated as active.
type Status int8

const (
	// StatusUnset is an absent status; the node counts as active.
	StatusUnset Status = iota
	// StatusActive is an explicitly active node.
	StatusActive
	// StatusInactive nodes are excluded from every resolved tree.
	StatusInactive
)

// Active reports whether the node is visible at all.
func (s Status) Active() bool {
	return s != StatusInactive
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unset"
	}
}

// MarshalJSON writes inactive as 0 and everything else as 1.
func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusInactive {
		return []byte("0"), nil
	}
	return []byte("1"), nil
}

// UnmarshalJSON accepts 0/1, true/false, "active"/"inactive" and null.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return s.set(v)
}

// MarshalYAML mirrors MarshalJSON.
func (s Status) MarshalYAML() (any, error) {
	if s == StatusInactive {
		return 0, nil
	}
	return 1, nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	var v any
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return s.set(v)
}

func (s *Status) set(v any) error {
	switch t := v.(type) {
	case nil:
		*s = StatusUnset
	case bool:
		*s = statusFromBool(t)
	case float64:
		*s = statusFromBool(t != 0)
	case int:
		*s = statusFromBool(t != 0)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "unset":
			*s = StatusUnset
		case "active", "1", "true":
			*s = StatusActive
		case "inactive", "0", "false":
			*s = StatusInactive
		default:
			return fmt.Errorf("status: unknown value %q", t)
		}
	default:
		return fmt.Errorf("status: unsupported type %T", v)
	}
	return nil
}

func statusFromBool(b bool) Status {
	if b {
		return StatusActive
	}
	return StatusInactive
}

// Node is one entry in a navigation/permission tree.
type Node struct {
	// Key identifies the node among its siblings. Required.
	Key string `json:"key" yaml:"key"`

	// Title is the display label.
	Title string `json:"title" yaml:"title"`

	// Link is the navigation target. Empty or "#" means the node only expands.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// Icon is a symbolic icon name resolved by the presentation layer.
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`

	// Description is an optional free text description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// OrderBy is an ordering hint kept for the presentation layer.
	OrderBy int `json:"order_by,omitempty" yaml:"order_by,omitempty"`

	// AllowedRoles are the roles permitted to see this node directly.
	AllowedRoles []string `json:"allowed_roles_types,omitempty" yaml:"allowed_roles_types,omitempty"`

	// Status excludes the node and its subtree when inactive.
	Status Status `json:"status,omitempty" yaml:"status,omitempty"`

	// Children are the sub-nodes in display order.
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// nodeFields mirrors Node for decoding, plus the field names used by the
// static dashboard config ("label" and "role").
type nodeFields struct {
	Key          string   `json:"key" yaml:"key"`
	Title        string   `json:"title" yaml:"title"`
	Label        string   `json:"label" yaml:"label"`
	Link         string   `json:"link" yaml:"link"`
	Icon         string   `json:"icon" yaml:"icon"`
	Description  string   `json:"description" yaml:"description"`
	OrderBy      int      `json:"order_by" yaml:"order_by"`
	AllowedRoles []string `json:"allowed_roles_types" yaml:"allowed_roles_types"`
	Role         []string `json:"role" yaml:"role"`
	Status       Status   `json:"status" yaml:"status"`
	Children     []Node   `json:"children" yaml:"children"`
}

func (f nodeFields) node() Node {
	n := Node{
		Key:          f.Key,
		Title:        f.Title,
		Link:         f.Link,
		Icon:         f.Icon,
		Description:  f.Description,
		OrderBy:      f.OrderBy,
		AllowedRoles: f.AllowedRoles,
		Status:       f.Status,
		Children:     f.Children,
	}
	if n.Title == "" {
		n.Title = f.Label
	}
	if len(n.AllowedRoles) == 0 {
		n.AllowedRoles = f.Role
	}
	return n
}

// UnmarshalJSON decodes a node, accepting "label" and "role" as aliases.
func (n *Node) UnmarshalJSON(b []byte) error {
	var f nodeFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = f.node()
	return nil
}

// UnmarshalYAML decodes a node, accepting "label" and "role" as aliases.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var f nodeFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	*n = f.node()
	return nil
}

// Target returns the navigation target of the node.
// The second value is false for container nodes that only toggle expansion.
func (n Node) Target() (string, bool) {
	if n.Link == "" || n.Link == NonNavigableLink {
		return "", false
	}
	return n.Link, true
}

// Allows reports whether any of the roles is directly permitted on the node.
func (n Node) Allows(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(n.AllowedRoles, r) {
			return true
		}
	}
	return false
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}
