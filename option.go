package fragment

import "github.com/rs/zerolog"

// WorldOption augments how a World is constructed. Options run after the
// configuration is loaded and before the logger is built.
type WorldOption func(*World)

// WithConfig replaces the loaded configuration wholesale. The config is
// still validated.
func WithConfig(cfg WorldConfig) WorldOption {
	return func(w *World) {
		w.cfg = cfg
	}
}

// WithName overrides the configured world name.
func WithName(name string) WorldOption {
	return func(w *World) {
		w.cfg.WorldName = name
	}
}

// WithLogger replaces the constructed logger. Tests use this to capture
// output; the logger is used as given, without the configured level or
// world fields applied.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
		w.customLogger = true
	}
}

// WithPrettyLog switches the world logger to human-readable console output.
func WithPrettyLog() WorldOption {
	return func(w *World) {
		w.cfg.LogPretty = true
	}
}
