package sl

import "log/slog"

// Err wraps an error into a slog attribute.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module tags log records with the originating module name.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret logs a sensitive value in redacted form, keeping only a short
// prefix so records stay correlatable.
func Secret(key, value string) slog.Attr {
	redacted := "***"
	if len(value) > 8 {
		redacted = value[:4] + "***"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(redacted),
	}
}
