package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// locate resolves a binary: an explicit path wins, then a copy bundled in
// assets/ next to the executable, then PATH.
func locate(name, configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured %s: %w", name, err)
		}
		return configured, nil
	}

	if bundled, ok := bundledBinary(name); ok {
		return bundled, nil
	}

	return exec.LookPath(name)
}

func bundledBinary(name string) (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(filepath.Dir(exe), "assets", name)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, true
	}
	return "", false
}
