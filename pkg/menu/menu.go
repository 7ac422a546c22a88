package menu

import (
	"errors"
	"slices"
)

// Menu is a menu document: a titled, versioned list of root nodes.
type Menu struct {
	// Title is the menu
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Description of the menu
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Version of the menu
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Items is the list of root nodes
	Items []Node `json:"items" yaml:"items"`
}

// Resolve returns a copy of the menu holding only the nodes the roles may see.
func (m *Menu) Resolve(roles ...string) (*Menu, error) {
	items, err := ResolveAny(m.Items, roles...)
	if err != nil {
		return nil, err
	}

	return &Menu{
		Title:       m.Title,
		Description: m.Description,
		Version:     m.Version,
		Items:       items,
	}, nil
}

// WalkFunc is called for every node visited by Walk.
// Returning SkipChildren skips the node's subtree; any other error stops the walk.
type WalkFunc func(path []int, parents []string, n *Node) error

// SkipChildren is returned by a WalkFunc to skip the current node's children.
var SkipChildren = errors.New("skip children")

// Walk visits the tree depth-first in display order.
func Walk(nodes []Node, fn WalkFunc) error {
	return walk(nodes, nil, nil, fn)
}

func walk(nodes []Node, path []int, parents []string, fn WalkFunc) error {
	for i := range nodes {
		n := &nodes[i]
		at := appendPath(path, i)

		err := fn(at, parents, n)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}

		if err := walk(n.Children, at, appendKey(parents, n.Key), fn); err != nil {
			return err
		}
	}

	return nil
}

// Count returns the number of nodes in the tree.
func Count(nodes []Node) int {
	total := 0
	_ = Walk(nodes, func([]int, []string, *Node) error {
		total++
		return nil
	})
	return total
}

// Validate checks the whole tree, inactive subtrees included, and reports
// every node with a missing key or a key repeated among its siblings.
func Validate(nodes []Node) error {
	var errs []error
	validate(nodes, nil, nil, &errs)
	return errors.Join(errs...)
}

func validate(nodes []Node, path []int, parents []string, errs *[]error) {
	seen := make([]string, 0, len(nodes))

	for i := range nodes {
		n := &nodes[i]
		at := appendPath(path, i)

		switch {
		case n.Key == "":
			*errs = append(*errs, &InvalidNodeError{Path: at, Parents: parents, Err: ErrMissingKey})
		case slices.Contains(seen, n.Key):
			*errs = append(*errs, &InvalidNodeError{Path: at, Parents: parents, Err: ErrDuplicateKey})
		default:
			seen = append(seen, n.Key)
		}

		validate(n.Children, at, appendKey(parents, n.Key), errs)
	}
}
