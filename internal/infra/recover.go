package infra

import "log/slog"

// Recover logs and swallows a panic. Intended to be deferred at the
// top of main() and around the scheduler's background polling loop,
// so one runaway command cannot take the whole process down.
func Recover() {
	if r := recover(); r != nil {
		slog.Error("recovered from panic", slog.Any("panic", r))
	}
}
