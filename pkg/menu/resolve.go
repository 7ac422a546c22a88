package menu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingKey is wrapped by InvalidNodeError when a node has no key.
	ErrMissingKey = errors.New("missing key")

	// ErrDuplicateKey is wrapped by InvalidNodeError when two siblings share a key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// InvalidNodeError identifies a malformed node by its position in the tree.
type InvalidNodeError struct {
	// Path is the chain of zero-based sibling indexes from the root list.
	Path []int

	// Parents are the keys of the ancestors, outermost first.
	Parents []string

	// Err is the underlying problem, ErrMissingKey or ErrDuplicateKey.
	Err error
}

// Position describes the node for an operator, e.g. "child 2 of settings".
// Positions are one-based.
func (e *InvalidNodeError) Position() string {
	if len(e.Path) == 0 {
		return "root"
	}

	pos := e.Path[len(e.Path)-1] + 1
	if len(e.Parents) == 0 {
		return "node " + strconv.Itoa(pos)
	}

	return fmt.Sprintf("child %d of %s", pos, strings.Join(e.Parents, "/"))
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("invalid menu node %s (path %v): %v", e.Position(), e.Path, e.Err)
}

func (e *InvalidNodeError) Unwrap() error {
	return e.Err
}

// Resolve returns the part of the tree the role may see.
//
// Inactive nodes are dropped with their subtree. Any other node is kept when
// the role is in its AllowedRoles or when at least one of its children is
// kept. Sibling order is preserved and the input is never modified.
// A node without a key fails the whole call with *InvalidNodeError.
func Resolve(nodes []Node, role string) ([]Node, error) {
	return ResolveAny(nodes, role)
}

// ResolveAny is Resolve for a principal holding several roles.
// A node is directly allowed when any of the roles matches.
func ResolveAny(nodes []Node, roles ...string) ([]Node, error) {
	r := resolver{roles: roles}
	return r.resolve(nodes, nil, nil)
}

type resolver struct {
	roles []string
}

func (r resolver) resolve(nodes []Node, path []int, parents []string) ([]Node, error) {
	var out []Node

	for i := range nodes {
		n := &nodes[i]
		at := appendPath(path, i)

		// inactive nodes are dropped with their subtree before any other check
		if !n.Status.Active() {
			continue
		}

		if n.Key == "" {
			return nil, &InvalidNodeError{Path: at, Parents: parents, Err: ErrMissingKey}
		}

		children, err := r.resolve(n.Children, at, appendKey(parents, n.Key))
		if err != nil {
			return nil, err
		}

		if !n.Allows(r.roles...) && len(children) == 0 {
			continue
		}

		out = append(out, n.copyWith(children))
	}

	return out, nil
}

// copyWith returns a copy of n owning its own role slice and the given children.
func (n *Node) copyWith(children []Node) Node {
	c := *n
	c.AllowedRoles = append([]string(nil), n.AllowedRoles...)
	if len(c.AllowedRoles) == 0 {
		c.AllowedRoles = nil
	}
	c.Children = children
	if c.Link == NonNavigableLink {
		c.Link = ""
	}
	return c
}

func appendPath(path []int, i int) []int {
	p := make([]int, len(path), len(path)+1)
	copy(p, path)
	return append(p, i)
}

func appendKey(keys []string, k string) []string {
	p := make([]string, len(keys), len(keys)+1)
	copy(p, keys)
	return append(p, k)
}
