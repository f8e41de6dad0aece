package history

import "github.com/dshills/folio/internal/model"

// GroupScope provides a convenient way to group changes using defer.
// Usage:
//
//	func paste(h *History, e *editor.Editor, nodes []*model.Node) {
//	    defer h.GroupScope("Paste").End()
//	    // ... several updates ...
//	}
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
// Call End() or use with defer to properly close the group.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{
		history: h,
		active:  true,
	}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Cancel cancels the group scope and drops its entry. The returned state
// is the document from before the group, or nil.
func (g *GroupScope) Cancel() *model.State {
	if !g.active {
		return nil
	}
	g.active = false
	return g.history.CancelGroup()
}

// Transaction runs fn within a grouped undo context. If fn returns an
// error the group is cancelled; the document is left as fn left it.
func (h *History) Transaction(name string, fn func() error) error {
	h.BeginGroup(name)

	if err := fn(); err != nil {
		h.CancelGroup()
		return err
	}

	h.EndGroup()
	return nil
}
