package config

import (
	"os"
	"path/filepath"
)

// DirName is the per-project directory holding config, logs and history.
const DirName = ".fathom"

// FindProjectDir returns the directory fathom treats as the project root.
// Priority order:
//  1. FATHOM_HOME environment variable (if set)
//  2. The nearest ancestor of start containing a .fathom directory
//  3. start itself
func FindProjectDir(start string) (string, error) {
	if home := os.Getenv("FATHOM_HOME"); home != "" {
		return filepath.Abs(home)
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for current := abs; ; {
		if info, err := os.Stat(filepath.Join(current, DirName)); err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return abs, nil
}
