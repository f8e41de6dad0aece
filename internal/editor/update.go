package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/folio/internal/model"
	"github.com/dshills/folio/internal/reconciler"
)

// UpdateFunc writes to the pending transaction.
type UpdateFunc func(tx *model.Tx) error

type queued struct {
	fn   UpdateFunc
	opts updateOptions
}

// batch collects what the updates of one transaction asked for.
type batch struct {
	tags           map[string]struct{}
	onUpdate       []func()
	skipTransforms bool
	replacement    *model.State
	err            error
}

func (b *batch) absorb(tx *model.Tx, o updateOptions) {
	for _, t := range o.tags {
		b.tags[t] = struct{}{}
		tx.Tag(t)
	}
	b.onUpdate = append(b.onUpdate, o.onUpdate...)
	if o.skipTransforms {
		b.skipTransforms = true
	}
}

func (b *batch) sortedTags() []string {
	tags := make([]string, 0, len(b.tags))
	for t := range b.tags {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Update runs fn inside a transaction and reports whether any node was
// made writable.
//
// Called while another update is writing, fn joins that batch: it runs at
// once against the same transaction and an error it returns aborts the
// whole batch. Called while listeners of a finished batch run, fn is queued
// for the next batch and Update returns false with a nil error; the outcome
// then reaches the error handler and WithOnUpdate callbacks only.
func (e *Editor) Update(fn UpdateFunc, opts ...UpdateOption) (bool, error) {
	o := newUpdateOptions(opts)

	e.mu.Lock()
	if e.phase == PhaseWriting {
		tx, b := e.pending, e.batch
		e.mu.Unlock()
		return e.runNested(tx, b, fn, o)
	}
	e.queue = append(e.queue, &queued{fn: fn, opts: o})
	if e.running {
		e.mu.Unlock()
		return false, nil
	}
	e.running = true
	e.mu.Unlock()

	return e.drain()
}

func (e *Editor) runNested(tx *model.Tx, b *batch, fn UpdateFunc, o updateOptions) (bool, error) {
	b.absorb(tx, o)
	if err := fn(tx); err != nil {
		if b.err == nil {
			b.err = err
		}
		return false, err
	}
	return tx.Changed(), nil
}

// drain runs batches until the queue is empty. The result of the first
// batch, which holds the caller's update, is returned.
func (e *Editor) drain() (bool, error) {
	var (
		changed  bool
		firstErr error
		first    = true
	)
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			e.mu.Unlock()
			return changed, firstErr
		}
		items := e.queue
		e.queue = nil
		e.mu.Unlock()

		c, err := e.runBatch(items)
		if first {
			changed, firstErr, first = c, err, false
		}
	}
}

func (e *Editor) txOptions() []model.TxOption {
	return []model.TxOption{
		model.WithRegistry(e.registry),
		model.WithSegmenter(e.segmenter),
		model.WithAutoDirection(e.autoDirection),
		model.WithComposition(e.composition),
	}
}

func (e *Editor) runBatch(items []*queued) (changed bool, err error) {
	e.mu.Lock()
	prev := e.state
	tx := model.Begin(prev, e.txOptions()...)
	b := &batch{tags: make(map[string]struct{})}
	e.pending, e.batch, e.phase = tx, b, PhaseWriting
	e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			// Leave the editor usable before handing the panic on.
			e.mu.Lock()
			e.pending, e.batch, e.phase = nil, nil, PhaseIdle
			e.queue = nil
			e.running = false
			e.mu.Unlock()
			panic(r)
		}
	}()

	err = e.write(tx, b, items)
	if err == nil {
		err = b.err
	}
	if err != nil {
		tx.Discard()
		e.mu.Lock()
		e.pending, e.batch, e.phase = nil, nil, PhaseIdle
		e.mu.Unlock()
		e.log.Warn("update discarded", "error", err, "updates", len(items))
		e.onError(err)
		return false, err
	}

	var (
		next  *model.State
		dirty *model.Dirty
	)
	if b.replacement != nil {
		tx.Discard()
		next, dirty = b.replacement, model.FullDirty()
		changed = true
	} else {
		changed = tx.Changed()
		next, dirty = tx.Commit()
	}

	e.mu.Lock()
	e.pending, e.batch, e.phase = nil, nil, PhaseReconciling
	if next != prev {
		e.state = next
	}
	e.mu.Unlock()

	if next != prev {
		e.publish(prev, next, dirty, b)
	}

	e.mu.Lock()
	e.phase = PhaseIdle
	e.mu.Unlock()

	for _, fn := range b.onUpdate {
		fn()
	}
	return changed, nil
}

// write runs the queued updates and the node transforms. Invariant panics
// become errors.
func (e *Editor) write(tx *model.Tx, b *batch, items []*queued) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rerr, ok := r.(error)
		var ie *model.InvariantError
		if !ok || !errors.As(rerr, &ie) {
			panic(r)
		}
		err = fmt.Errorf("%w: %w", ErrUpdateAborted, rerr)
	}()

	prevSel := tx.Prev().Selection()
	for _, q := range items {
		b.absorb(tx, q.opts)
		if err := q.fn(tx); err != nil {
			return err
		}
		if b.err != nil {
			return b.err
		}
	}
	if b.replacement != nil {
		return nil
	}
	if sel := tx.Selection(); !sameSelection(prevSel, sel) {
		DispatchCommand(e, SelectionChange, struct{}{})
	}
	if b.skipTransforms {
		return nil
	}
	return e.runTransforms(tx)
}

func sameSelection(a, b model.Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Is(b)
}

func (e *Editor) runTransforms(tx *model.Tx) error {
	for pass := 0; ; pass++ {
		keys := tx.TakeTouched()
		if len(keys) == 0 {
			return nil
		}
		e.mu.RLock()
		sets := make(map[string][]TransformFunc, len(e.transforms))
		for typ, set := range e.transforms {
			if fns := set.snapshot(); len(fns) > 0 {
				sets[typ] = fns
			}
		}
		limit := e.maxPasses
		e.mu.RUnlock()
		if len(sets) == 0 {
			return nil
		}
		if pass >= limit {
			return fmt.Errorf("%w after %d passes", ErrTransformLoop, pass)
		}
		for _, k := range keys {
			n := tx.NodeByKey(k)
			if n == nil {
				continue
			}
			for _, fn := range sets[n.Type()] {
				n = tx.NodeByKey(k)
				if n == nil || !n.IsAttached(tx) {
					break
				}
				fn(tx, n)
			}
		}
	}
}

// publish renders next and notifies listeners.
func (e *Editor) publish(prev, next *model.State, dirty *model.Dirty, b *batch) {
	e.mu.RLock()
	full := e.needsFull
	e.mu.RUnlock()
	if full {
		dirty.Full = true
	}

	res, err := e.recon.Reconcile(prev, next, dirty)
	e.mu.Lock()
	e.needsFull = err != nil
	decoratorsChanged := e.applyDecorators(next, res)
	decorators := e.decorators
	e.mu.Unlock()
	if err != nil {
		e.onError(fmt.Errorf("reconcile: %w", err))
	}

	ev := UpdateEvent{
		Tags:            b.sortedTags(),
		PrevState:       prev,
		State:           next,
		DirtyLeaves:     dirty.Leaves,
		DirtyElements:   dirty.Elements,
		NormalizedNodes: dirty.Normalized,
		Full:            dirty.Full,
	}
	e.notifyMutations(res, ev)
	if decoratorsChanged {
		for _, fn := range e.decoratorListeners.snapshot() {
			fn(decorators)
		}
	}
	if e.textContentListeners.len() > 0 {
		if text := next.TextContent(); text != prev.TextContent() {
			for _, fn := range e.textContentListeners.snapshot() {
				fn(text)
			}
		}
	}
	for _, fn := range e.updateListeners.snapshot() {
		fn(ev)
	}
}

// applyDecorators renders created and updated decorators. It replaces the
// map rather than mutating it so handed-out maps stay stable. Callers hold
// e.mu.
func (e *Editor) applyDecorators(next *model.State, res reconciler.Result) bool {
	if len(res.Decorators) == 0 {
		return false
	}
	decs := make(map[model.Key]any, len(e.decorators)+len(res.Decorators))
	for k, v := range e.decorators {
		decs[k] = v
	}
	for k, m := range res.Decorators {
		if m == MutationDestroyed {
			delete(decs, k)
			continue
		}
		n := next.NodeByKey(k)
		if n == nil {
			continue
		}
		if e.decorate != nil {
			decs[k] = e.decorate(n)
		} else {
			decs[k] = n.Type()
		}
	}
	e.decorators = decs
	return true
}

func (e *Editor) notifyMutations(res reconciler.Result, ev UpdateEvent) {
	if len(res.Mutations) == 0 {
		return
	}
	e.mu.RLock()
	sets := make(map[string]*listenerSet[MutationListener], len(e.mutationListeners))
	for typ, set := range e.mutationListeners {
		sets[typ] = set
	}
	e.mu.RUnlock()

	types := make([]string, 0, len(sets))
	for typ := range sets {
		types = append(types, typ)
	}
	slices.Sort(types)
	for _, typ := range types {
		muts := res.OfType(typ)
		if len(muts) == 0 {
			continue
		}
		for _, fn := range sets[typ].snapshot() {
			fn(muts, ev)
		}
	}
}
