package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

var processStart = time.Now()

// SysHealth is a point-in-time snapshot of process and storage health.
type SysHealth struct {
	AllocMB    uint64 `json:"allocMB"`
	SysMB      uint64 `json:"sysMB"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
	Uptime     string `json:"uptime"`
	DBSize     string `json:"dbSize"`
}

// GetSysHealth collects runtime stats and the size of the database file.
func GetSysHealth(dbPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(processStart).Round(time.Second).String(),
		DBSize:     fileSize(dbPath),
	}
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}

	size := info.Size()
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
