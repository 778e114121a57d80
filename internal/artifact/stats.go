package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Stats describes current store usage.
type Stats struct {
	Entries    int     `json:"entries"`
	TotalBytes int64   `json:"total_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	FreeRatio  float64 `json:"free_ratio"`
}

// Stats walks the store directory and reports entry count, total size, and
// filesystem headroom.
func (s *Store) Stats() (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return stats, fmt.Errorf("read store directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}

	total, free, err := s.statfs(s.dir)
	if err != nil {
		return stats, fmt.Errorf("statfs %s: %w", s.dir, err)
	}
	stats.FreeBytes = free
	if total > 0 {
		stats.FreeRatio = float64(free) / float64(total)
	}
	return stats, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(filepath.Clean(path), &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
