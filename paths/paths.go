// Package paths provides centralized path resolution for clod-bridge.
//
// Two kinds of paths live here:
//
//   - The bridge's own directories (config file, logs), resolved once per
//     process. A legacy ~/.clod/ layout takes precedence; otherwise XDG Base
//     Directory variables are honored, falling back to ~/.clod/ on a fresh
//     install with no XDG vars set.
//
//   - The shared rendezvous runtime directory (.clod-runtime), which is
//     owned by the approver and merely discovered here by walking upward
//     from the working directory.
package paths

import (
	"os"
	"path/filepath"
	"sync"
)

// RuntimeDirName is the marker directory containing the permission FIFOs.
// The approver creates it; the bridge only looks for it.
const RuntimeDirName = ".clod-runtime"

var (
	mu       sync.Mutex
	resolved *resolvedPaths
)

type resolvedPaths struct {
	configDir string
	stateDir  string
	legacy    bool
}

// resolve computes the path layout once and caches it.
func resolve() (*resolvedPaths, error) {
	mu.Lock()
	defer mu.Unlock()

	if resolved != nil {
		return resolved, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	legacyDir := filepath.Join(home, ".clod")

	// 1. If ~/.clod/ exists, use legacy layout
	if info, err := os.Stat(legacyDir); err == nil && info.IsDir() {
		resolved = &resolvedPaths{
			configDir: legacyDir,
			stateDir:  legacyDir,
			legacy:    true,
		}
		return resolved, nil
	}

	// 2. Check XDG env vars
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	xdgState := os.Getenv("XDG_STATE_HOME")

	if xdgConfig != "" || xdgState != "" {
		// Use XDG layout — fill in defaults for unset vars
		if xdgConfig == "" {
			xdgConfig = filepath.Join(home, ".config")
		}
		if xdgState == "" {
			xdgState = filepath.Join(home, ".local", "state")
		}
		resolved = &resolvedPaths{
			configDir: filepath.Join(xdgConfig, "clod"),
			stateDir:  filepath.Join(xdgState, "clod"),
			legacy:    false,
		}
		return resolved, nil
	}

	// 3. Fresh install, no XDG — default to legacy
	resolved = &resolvedPaths{
		configDir: legacyDir,
		stateDir:  legacyDir,
		legacy:    true,
	}
	return resolved, nil
}

// ConfigDir returns the directory for configuration files (config.yaml).
func ConfigDir() (string, error) {
	r, err := resolve()
	if err != nil {
		return "", err
	}
	return r.configDir, nil
}

// StateDir returns the directory for runtime state and logs.
func StateDir() (string, error) {
	r, err := resolve()
	if err != nil {
		return "", err
	}
	return r.stateDir, nil
}

// ConfigFilePath returns the full path to config.yaml.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LogsDir returns the directory for log files.
func LogsDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// IsLegacyLayout returns true if using the ~/.clod/ flat layout.
func IsLegacyLayout() bool {
	r, err := resolve()
	if err != nil {
		return true // assume legacy on error
	}
	return r.legacy
}

// RuntimeDir locates the shared rendezvous directory for the current
// working directory. See FindRuntimeDir for the search rules.
func RuntimeDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRuntimeDir(cwd), nil
}

// FindRuntimeDir walks upward from start looking for a .clod-runtime
// directory and returns the first one found. If the walk reaches the
// filesystem root without a match, it returns start/.clod-runtime — a path
// that may not exist. Absence is deliberately not an error here: the
// transport checks for the FIFOs and treats a missing pair as "no approver
// listening".
func FindRuntimeDir(start string) string {
	dir := start
	for {
		candidate := filepath.Join(dir, RuntimeDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(start, RuntimeDirName)
}

// Reset clears the cached path resolution. This is intended for testing only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resolved = nil
}
