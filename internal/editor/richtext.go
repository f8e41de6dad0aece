package editor

import (
	"github.com/dshills/folio/internal/command"
	"github.com/dshills/folio/internal/model"
)

// RegisterRichText installs the default handlers for the built-in editing
// commands at editor priority and returns a function removing all of them.
// Handlers decline while the editor is read-only or has no range selection.
func RegisterRichText(e *Editor) func() {
	rangeFn := func(apply func(tx *model.Tx, sel *model.RangeSelection)) func(*model.Tx) bool {
		return func(tx *model.Tx) bool {
			sel := tx.RangeSelection()
			if sel == nil || e.IsReadOnly() {
				return false
			}
			apply(tx, sel)
			return true
		}
	}
	blocksFn := func(apply func(tx *model.Tx, block *model.Node)) func(*model.Tx) bool {
		return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
			for _, b := range selectedBlocks(tx, sel) {
				apply(tx, b)
			}
		})
	}

	prio := command.PriorityEditor
	unregister := []func(){
		RegisterCommand(e, DeleteCharacter, func(tx *model.Tx, backward bool) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.DeleteCharacter(tx, backward)
			})(tx)
		}, prio),
		RegisterCommand(e, DeleteWord, func(tx *model.Tx, backward bool) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.DeleteWord(tx, backward)
			})(tx)
		}, prio),
		RegisterCommand(e, DeleteLine, func(tx *model.Tx, backward bool) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.DeleteLine(tx, backward)
			})(tx)
		}, prio),
		RegisterCommand(e, InsertText, func(tx *model.Tx, text string) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.InsertText(tx, text)
			})(tx)
		}, prio),
		RegisterCommand(e, InsertLineBreak, func(tx *model.Tx, selectStart bool) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.InsertLineBreak(tx, selectStart)
			})(tx)
		}, prio),
		RegisterCommand(e, InsertParagraph, func(tx *model.Tx, _ struct{}) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.InsertParagraph(tx)
			})(tx)
		}, prio),
		RegisterCommand(e, RemoveText, func(tx *model.Tx, _ struct{}) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.RemoveText(tx)
			})(tx)
		}, prio),
		RegisterCommand(e, FormatText, func(tx *model.Tx, flag model.TextFormat) bool {
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				sel.FormatText(tx, flag)
			})(tx)
		}, prio),
		RegisterCommand(e, FormatElement, func(tx *model.Tx, format model.ElementFormat) bool {
			return blocksFn(func(tx *model.Tx, b *model.Node) {
				b.SetElementFormat(tx, format)
			})(tx)
		}, prio),
		RegisterCommand(e, IndentContent, func(tx *model.Tx, _ struct{}) bool {
			return blocksFn(func(tx *model.Tx, b *model.Node) {
				b.SetIndent(tx, b.Indent()+1)
			})(tx)
		}, prio),
		RegisterCommand(e, OutdentContent, func(tx *model.Tx, _ struct{}) bool {
			return blocksFn(func(tx *model.Tx, b *model.Node) {
				if b.Indent() > 0 {
					b.SetIndent(tx, b.Indent()-1)
				}
			})(tx)
		}, prio),
		RegisterCommand(e, InsertTable, func(tx *model.Tx, size TableSize) bool {
			if size.Rows <= 0 || size.Columns <= 0 {
				return false
			}
			return rangeFn(func(tx *model.Tx, sel *model.RangeSelection) {
				grid := model.BuildGrid(tx, size.Rows, size.Columns)
				sel.InsertNodes(tx, []*model.Node{grid}, false)
			})(tx)
		}, prio),
		RegisterCommand(e, ClearEditor, func(tx *model.Tx, _ struct{}) bool {
			if e.IsReadOnly() {
				return false
			}
			clearRoot(tx)
			return true
		}, prio),
	}

	return func() {
		for _, fn := range unregister {
			fn()
		}
	}
}

// clearRoot leaves a single empty paragraph holding the caret.
func clearRoot(tx *model.Tx) {
	root := tx.Root()
	root.Clear(tx)
	p := model.NewParagraph(tx)
	root.Append(tx, p)
	p.SelectStart(tx)
}

// selectedBlocks returns the distinct blocks touched by sel in document
// order.
func selectedBlocks(r model.Reader, sel *model.RangeSelection) []*model.Node {
	seen := make(map[model.Key]bool)
	var out []*model.Node
	for _, n := range sel.Nodes(r) {
		b := n.Block(r)
		if b == nil || seen[b.Key()] {
			continue
		}
		seen[b.Key()] = true
		out = append(out, b)
	}
	return out
}
