// Package lua lets Lua scripts extend an editor.
//
// A Host owns one sandboxed gopher-lua state bound to an editor. Scripts
// see a global "folio" module:
//
//	folio.register(name, fn [, priority])  -- handle a command
//	folio.dispatch(name [, payload])       -- dispatch a command, returns handled
//	folio.insert_text(text)                -- insert at the selection
//	folio.insert_paragraph()               -- split the block at the selection
//	folio.text()                           -- document text
//	folio.selection()                      -- selected text, or nil
//	folio.read_only()                      -- whether the editor is read-only
//	folio.on_update(fn)                    -- fn(tags) after every update
//	folio.log(level, message)
//
// Script handlers share the editor's command bus with Go handlers and run
// in priority order with them; priorities are named "editor", "low",
// "normal", "high" and "critical". A handler returning true stops
// propagation. Inside a handler edits join the pending update; elsewhere
// each edit runs its own update.
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring and require are removed, and print writes to
// the host logger. Each top-level call runs under an execution timeout.
//
// A Host is not safe for concurrent use. Script handlers may dispatch
// commands that re-enter the same state.
package lua
