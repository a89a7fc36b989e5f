//go:build !linux && !windows

package capture

import "log/slog"

// No capture capability on other platforms; window-capture configs fail
// at construction with ErrNoBackend.
func platformBackends(*slog.Logger) []Backend { return nil }
