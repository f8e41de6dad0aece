package model

import "fmt"

// Validate checks that the node map of s forms a single tree rooted at the
// root node and that the selection addresses it. Errors wrap
// ErrInvalidState.
func Validate(s *State) error {
	root := s.NodeByKey(RootKey)
	if root == nil {
		return fmt.Errorf("validate: missing root: %w", ErrInvalidState)
	}
	if root.typ != TypeRoot || root.kind != KindElement || root.parent != "" {
		return fmt.Errorf("validate: malformed root: %w", ErrInvalidState)
	}

	seen := make(map[Key]bool, s.nodes.Len())
	stack := []*Node{root}
	seen[RootKey] = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.kind != KindElement && len(n.children) > 0 {
			return fmt.Errorf("validate: leaf %s has children: %w", n.key, ErrInvalidState)
		}
		for _, ck := range n.children {
			c := s.NodeByKey(ck)
			if c == nil {
				return fmt.Errorf("validate: child %s of %s: %w: %w", ck, n.key, ErrNodeNotFound, ErrInvalidState)
			}
			if seen[ck] {
				return fmt.Errorf("validate: node %s reached twice: %w", ck, ErrInvalidState)
			}
			if c.parent != n.key {
				return fmt.Errorf("validate: node %s has parent %q, listed under %s: %w", ck, c.parent, n.key, ErrInvalidState)
			}
			seen[ck] = true
			stack = append(stack, c)
		}
	}
	if len(seen) != s.nodes.Len() {
		var orphan Key
		s.nodes.Range(func(k Key, _ *Node) bool {
			if !seen[k] {
				orphan = k
				return false
			}
			return true
		})
		return fmt.Errorf("validate: node %s is not reachable from the root: %w", orphan, ErrInvalidState)
	}

	switch sel := s.selection.(type) {
	case *RangeSelection:
		if !sel.Anchor.valid(s) || !sel.Focus.valid(s) {
			return fmt.Errorf("validate: selection %s: %w", sel, ErrInvalidState)
		}
	case *NodeSelection:
		for _, k := range sel.Keys() {
			if !seen[k] {
				return fmt.Errorf("validate: selected node %s: %w", k, ErrInvalidState)
			}
		}
	case *GridSelection:
		if _, ok := sel.Shape(s); !ok {
			return fmt.Errorf("validate: grid selection: %w", ErrInvalidState)
		}
	}
	return nil
}
