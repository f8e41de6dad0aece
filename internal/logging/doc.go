// Package logging provides the leveled, field-carrying logger used across
// folio. It is a thin layer over go.uber.org/zap that keeps the small API
// the rest of the code base logs through:
//
//	log := logging.NewLogger(logging.DefaultLoggerConfig())
//	log = log.WithComponent("editor")
//	log.Info("update committed", "tags", tags, "dirty", n)
//
// Messages carry alternating key/value pairs rather than format strings.
// Loggers derived with WithField or WithComponent share the level and the
// enabled switch of the logger they came from.
package logging
