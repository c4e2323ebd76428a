package sensor

import "log/slog"

// Open runs a startup probe for one capability. A failing probe is reported once
// and the capability stays absent for the lifetime of the process.
func Open[T any](logger *slog.Logger, name string, probe func() (T, error)) (T, bool) {
	dev, err := probe()
	if err != nil {
		var zero T
		logger.Warn("sensor unavailable, readings will be NaN", slog.String("sensor", name), slog.String("error", err.Error()))
		return zero, false
	}
	logger.Info("sensor ready", slog.String("sensor", name))
	return dev, true
}
