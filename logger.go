package exportdb

import "log/slog"

// logger is the package-level seam every Collection/Analysis warning also
// gets mirrored through, at Warn level. Callers that want their own sink
// (structured JSON, a test spy, /dev/null) call SetLogger; the zero value
// is slog.Default().
var logger = slog.Default()

// SetLogger overrides the logger warnings are mirrored to. Passing nil
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

func logWarning(source string, err error) {
	logger.Warn("recoverable decode warning", "source", source, "error", err)
}
