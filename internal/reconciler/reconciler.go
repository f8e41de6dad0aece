package reconciler

import (
	"fmt"

	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/target"
)

// Reconciler writes state changes to a target. It is not safe for
// concurrent use; the editor serializes reconciles.
type Reconciler struct {
	target   target.Target
	registry *model.Registry
	log      *logging.Logger
}

// New creates a reconciler for t. A nil registry uses the registry of each
// reconciled state.
func New(t target.Target, reg *model.Registry, opts ...Option) *Reconciler {
	r := &Reconciler{target: t, registry: reg, log: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Target returns the target being written.
func (r *Reconciler) Target() target.Target {
	return r.target
}

// Reconcile brings the target from prev to next. A nil dirty, a full dirty
// or a nil prev walk the whole tree. The returned Result is valid up to
// the first target error.
func (r *Reconciler) Reconcile(prev, next *model.State, dirty *model.Dirty) (Result, error) {
	if next == nil {
		return Result{}, ErrNilState
	}
	if r.target == nil {
		return Result{}, ErrNilTarget
	}
	full := dirty == nil || dirty.Full || prev == nil
	if prev == next && !full {
		return newResult(), nil
	}

	reg := r.registry
	if reg == nil {
		reg = next.Registry()
	}
	p := &pass{
		target:   r.target,
		registry: reg,
		prev:     prev,
		next:     next,
		dirty:    dirty,
		full:     full,
		res:      newResult(),
	}
	if err := p.node(model.RootKey); err != nil {
		return p.res, err
	}
	for _, k := range p.destroyed {
		if err := p.destroy(k); err != nil {
			return p.res, err
		}
	}
	r.log.Debug("reconciled",
		"full", full,
		"ops", p.res.Ops,
		"mutations", len(p.res.Mutations),
		"decorators", len(p.res.Decorators))
	return p.res, nil
}

// pass holds the state of one reconcile.
type pass struct {
	target   target.Target
	registry *model.Registry
	prev     *model.State
	next     *model.State
	dirty    *model.Dirty
	full     bool
	res      Result

	// destroyed holds the roots of removed subtrees.
	destroyed []model.Key
}

func (p *pass) prevNode(key model.Key) *model.Node {
	if p.prev == nil {
		return nil
	}
	return p.prev.NodeByKey(key)
}

func (p *pass) isDirty(key model.Key) bool {
	return p.full || p.dirty.IsDirty(key)
}

func (p *pass) record(n *model.Node, m model.Key, mut Mutation) {
	p.res.Mutations[m] = mut
	p.res.Types[m] = n.Type()
	if n.IsDecorator() {
		p.res.Decorators[m] = mut
	}
}

func (p *pass) op(key model.Key, what string, err error) error {
	p.res.Ops++
	if err != nil {
		return fmt.Errorf("reconcile %s %s: %w", what, key, err)
	}
	return nil
}

// node creates or updates the element for key and descends into its
// children when they may have changed.
func (p *pass) node(key model.Key) error {
	n := p.next.NodeByKey(key)
	old := p.prevNode(key)

	switch {
	case old == nil:
		if err := p.op(key, "create", p.target.Create(string(key), p.registry.RenderSpec(n))); err != nil {
			return err
		}
		p.record(n, key, MutationCreated)
	case old != n:
		if !old.SameRender(n) {
			if err := p.op(key, "update", p.target.Update(string(key), p.registry.RenderSpec(n))); err != nil {
				return err
			}
		}
		p.record(n, key, MutationUpdated)
	}

	if !n.IsElement() || (old != nil && !p.isDirty(key)) {
		return nil
	}
	return p.children(n, old)
}

// children reconciles the child list of n against its previous version.
func (p *pass) children(n, old *model.Node) error {
	nextKeys := n.ChildKeys()
	var prevKeys []model.Key
	if old != nil {
		prevKeys = old.ChildKeys()
	}

	inNext := make(map[model.Key]bool, len(nextKeys))
	for _, k := range nextKeys {
		inNext[k] = true
	}
	oldIndex := make(map[model.Key]int, len(prevKeys))
	for i, k := range prevKeys {
		oldIndex[k] = i
		if !inNext[k] && p.next.NodeByKey(k) == nil {
			p.destroyed = append(p.destroyed, k)
		}
	}

	for _, k := range nextKeys {
		prev := p.prevNode(k)
		if prev == nil || p.isDirty(k) || prev != p.next.NodeByKey(k) {
			if err := p.node(k); err != nil {
				return err
			}
		}
	}

	positions := make([]int, len(nextKeys))
	for i, k := range nextKeys {
		if j, ok := oldIndex[k]; ok {
			positions[i] = j
		} else {
			positions[i] = -1
		}
	}
	stable := longestIncreasing(positions)
	for i := len(nextKeys) - 1; i >= 0; i-- {
		if stable[i] {
			continue
		}
		before := ""
		if i+1 < len(nextKeys) {
			before = string(nextKeys[i+1])
		}
		k := nextKeys[i]
		if err := p.op(k, "insert", p.target.Insert(string(n.Key()), string(k), before)); err != nil {
			return err
		}
	}
	return nil
}

// destroy reports every node of a removed subtree that did not survive
// elsewhere and removes the subtree's element.
func (p *pass) destroy(key model.Key) error {
	root := p.prevNode(key)
	if root == nil {
		return nil
	}
	model.Walk(p.prev, root, func(n *model.Node) bool {
		if p.next.NodeByKey(n.Key()) == nil {
			p.record(n, n.Key(), MutationDestroyed)
		}
		return true
	})
	if _, ok := p.target.Lookup(string(key)); !ok {
		return nil
	}
	return p.op(key, "remove", p.target.Remove(string(key)))
}
