package core

import (
	"path/filepath"

	"github.com/tcbuild/tcbuild/src/fs"
)

// A Layout describes where things go under the build output directory.
type Layout struct {
	// RepoRoot is the absolute path to the root of the repository.
	RepoRoot string
	// OutputDir is the absolute path to the build output directory.
	OutputDir string
}

// NewLayout returns a Layout for the given repo root and output directory, which is
// interpreted relative to the repo root unless it's absolute.
func NewLayout(repoRoot, outputDir string) Layout {
	output := fs.NewFilePath(outputDir)
	if !filepath.IsAbs(outputDir) {
		output = fs.NewFilePath(repoRoot, output)
	}
	return Layout{RepoRoot: repoRoot, OutputDir: output.String()}
}

// ClassesDir returns the directory that compiled classes for a subtree are written to.
func (l Layout) ClassesDir(module, subtree string) string {
	return l.output().Child(module, subtree+".classes").String()
}

// TestResultsDir returns the directory that test results for a subtree are written to.
func (l Layout) TestResultsDir(module, subtree string) string {
	return l.output().Child("test-results", module, subtree).String()
}

// KitsDir returns the directory that packaged kits are written to.
func (l Layout) KitsDir() string {
	return l.output().Child("kits").String()
}

func (l Layout) output() *fs.FilePath {
	return fs.NewFilePath(l.OutputDir)
}
