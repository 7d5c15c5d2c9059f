package badgerstore

import (
	"fmt"
	"log/slog"
	"strings"
)

// slogLogger routes badger's printf logging into slog.
type slogLogger struct{}

func (slogLogger) Errorf(format string, args ...any) {
	slog.Error(trim(format, args), "component", "badger")
}

func (slogLogger) Warningf(format string, args ...any) {
	slog.Warn(trim(format, args), "component", "badger")
}

func (slogLogger) Infof(format string, args ...any) {
	slog.Debug(trim(format, args), "component", "badger")
}

func (slogLogger) Debugf(format string, args ...any) {
	slog.Debug(trim(format, args), "component", "badger")
}

func trim(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
