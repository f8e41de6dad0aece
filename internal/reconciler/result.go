package reconciler

import "github.com/dshills/folio/internal/model"

// Mutation is the kind of change a node went through.
type Mutation uint8

const (
	// MutationCreated means the node is new in the target.
	MutationCreated Mutation = iota + 1

	// MutationUpdated means the node existed and was written.
	MutationUpdated

	// MutationDestroyed means the node was removed.
	MutationDestroyed
)

// String returns "created", "updated" or "destroyed".
func (m Mutation) String() string {
	switch m {
	case MutationCreated:
		return "created"
	case MutationUpdated:
		return "updated"
	case MutationDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Result describes what one reconcile did.
type Result struct {
	// Mutations holds every created, updated or destroyed node.
	Mutations map[model.Key]Mutation

	// Types holds the type tag of every node in Mutations.
	Types map[model.Key]string

	// Decorators holds the mutations of decorator nodes.
	Decorators map[model.Key]Mutation

	// Ops counts calls made on the target.
	Ops int
}

func newResult() Result {
	return Result{
		Mutations:  make(map[model.Key]Mutation),
		Types:      make(map[model.Key]string),
		Decorators: make(map[model.Key]Mutation),
	}
}

// OfType returns the mutations of nodes of one type, or nil.
func (r Result) OfType(typ string) map[model.Key]Mutation {
	var out map[model.Key]Mutation
	for k, m := range r.Mutations {
		if r.Types[k] != typ {
			continue
		}
		if out == nil {
			out = make(map[model.Key]Mutation)
		}
		out[k] = m
	}
	return out
}

// MutatedTypes returns the set of types with at least one mutation.
func (r Result) MutatedTypes() map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range r.Types {
		out[t] = struct{}{}
	}
	return out
}

// Empty reports whether nothing was written to the target.
func (r Result) Empty() bool {
	return r.Ops == 0 && len(r.Mutations) == 0
}
