package command

import (
	"slices"
	"sort"
	"sync"
)

type entry struct {
	id   uint64
	prio Priority
	fn   func(payload any) bool
}

// Bus holds command handlers. It is safe for concurrent use; handlers may
// register and unregister other handlers while a dispatch is running.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]*entry
	seq      uint64
}

// NewBus creates an empty command bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]*entry)}
}

// add inserts e keeping the list ordered by priority, highest first, then
// by registration order.
func (b *Bus) add(name string, prio Priority, fn func(any) bool) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	e := &entry{id: b.seq, prio: prio, fn: fn}
	list := append(b.handlers[name], e)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].prio > list[j].prio
	})
	b.handlers[name] = list
	return e.id
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[name]
	i := slices.IndexFunc(list, func(e *entry) bool { return e.id == id })
	if i < 0 {
		return
	}
	list = slices.Delete(slices.Clone(list), i, i+1)
	if len(list) == 0 {
		delete(b.handlers, name)
		return
	}
	b.handlers[name] = list
}

func (b *Bus) snapshot(name string) []*entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.handlers[name])
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[name])
}

// Names returns the commands that have handlers, sorted.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers))
	for n := range b.handlers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Register adds fn as a handler of cmd at prio and returns a function that
// removes it. Unregistering twice is harmless.
func Register[P any](b *Bus, cmd Command[P], fn Handler[P], prio Priority) func() {
	if fn == nil {
		return func() {}
	}
	id := b.add(cmd.name, prio, func(v any) bool {
		var p P
		if v != nil {
			var ok bool
			if p, ok = v.(P); !ok {
				return false
			}
		}
		return fn(p)
	})
	var once sync.Once
	return func() {
		once.Do(func() { b.remove(cmd.name, id) })
	}
}

// Dispatch passes payload to the handlers of cmd until one handles it and
// reports whether any did. Handlers registered for the same name with a
// different payload type are skipped.
func Dispatch[P any](b *Bus, cmd Command[P], payload P) bool {
	return b.DispatchName(cmd.name, payload)
}

// DispatchName dispatches an untyped payload by command name. Script
// bindings use it where payload types are only known at run time.
func (b *Bus) DispatchName(name string, payload any) bool {
	for _, e := range b.snapshot(name) {
		if e.fn(payload) {
			return true
		}
	}
	return false
}
