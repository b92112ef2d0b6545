package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobePath returns the ffprobe command to run. An explicit path is
// used as configured; a bare name is looked for next to an ffmpeg found on
// PATH before falling back to the bare name itself.
func ResolveFFprobePath(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = "ffprobe"
	}
	if strings.ContainsRune(configured, filepath.Separator) {
		return configured
	}
	if ffmpeg, err := lookPath("ffmpeg"); err == nil {
		candidate := filepath.Join(filepath.Dir(ffmpeg), executableName(configured))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate
		}
	}
	return configured
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
