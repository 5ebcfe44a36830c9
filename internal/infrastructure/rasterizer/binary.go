package rasterizer

import (
	"path/filepath"
	"runtime"
	"strings"
)

// BinaryName is the platform file name of Poppler's page renderer.
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "pdftoppm.exe"
	}
	return "pdftoppm"
}

// ResolveBinary locates pdftoppm: an explicit override wins, then the
// POPPLER_PATH directory, then the PATH lookup. It returns "" when nothing
// resolves.
func ResolveBinary(override string, getenv func(string) string, lookPath func(string) (string, error)) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if getenv != nil {
		if dir := strings.TrimSpace(getenv("POPPLER_PATH")); dir != "" {
			return filepath.Join(dir, BinaryName())
		}
	}
	if lookPath != nil {
		if p, err := lookPath(BinaryName()); err == nil && p != "" {
			return p
		}
	}
	return ""
}
