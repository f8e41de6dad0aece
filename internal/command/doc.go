// Package command implements the editor command bus.
//
// A command is a named, typed message. Handlers register for a command at
// one of five priorities and are called from the highest priority down,
// in registration order within a priority, until one reports that it
// handled the payload:
//
//	bus := command.NewBus()
//	unregister := command.Register(bus, InsertText, func(s string) bool {
//	    return insert(s)
//	}, command.PriorityNormal)
//	defer unregister()
//
//	handled := command.Dispatch(bus, InsertText, "hello")
//
// The bus itself does not open transactions. The editor wraps dispatch in
// an update so every handler runs against the same open transaction.
package command
