package util

import (
	"log/slog"
	"time"
)

// Trace 计时辅助：defer util.Trace("xxx")()
func Trace(msg string) func() {
	start := time.Now()
	return func() {
		slog.Info(msg, "cost", time.Since(start))
	}
}
