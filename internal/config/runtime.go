package config

import (
	"os"
	"path/filepath"
)

const defaultRuntimeDir = ".vibectx"

// GetRuntimePath resolves the runtime directory before any config is parsed,
// so the .env inside it can be loaded first.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("VIBECTX_RUNTIME_PATH"))
}

// resolveRuntimePath anchors relative paths at the user's home directory.
func resolveRuntimePath(path string) string {
	if path == "" {
		path = defaultRuntimeDir
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
