package util

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SweepDir 删除目录下超过 maxAge 的普通文件，返回删除数量
// 上传目录里的原图、dilated_、result_ 中间产物都是一次性工件
func SweepDir(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	deadline := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(deadline) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove stale file", "file", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("swept stale files", "dir", dir, "removed", removed)
	}
	return removed, nil
}
