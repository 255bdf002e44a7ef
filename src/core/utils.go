package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRepoRoot returns the root directory of the repo containing the given directory,
// which is the closest one upwards that contains a .tcbuildconfig file.
func FindRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("couldn't locate the repo root; are you sure you're inside a tcbuild repo? (looking for %s)", ConfigFileName)
		}
		dir = parent
	}
}

// ConfigFiles returns the config files to read for the given repo, in the order they apply.
func ConfigFiles(repoRoot string) []string {
	return []string{
		MachineConfigFileName,
		filepath.Join(repoRoot, ConfigFileName),
		filepath.Join(repoRoot, LocalConfigFileName),
	}
}
