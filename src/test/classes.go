// Package test selects the test classes to run and reads back the results of running them.
package test

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
)

var log = logging.Log

// FindTestClasses returns the fully qualified names of the test classes in a subtree, sorted.
// Test classes are the Java source files whose names end in the given suffix followed by .java.
func FindTestClasses(fsys fs.FS, st *core.BuildSubtree, suffix string) ([]string, error) {
	if !st.SourceExists() {
		return nil, nil
	}
	root := st.SourceRoot()
	base := fs.NewFilePath(root)
	classes := []string{}
	err := fsys.Walk(root, func(name string, isDir bool) error {
		if isDir || !strings.HasSuffix(name, suffix+".java") {
			return nil
		}
		classes = append(classes, ClassName(fs.NewFilePath(name).RelativeTo(base).Slash()))
		return nil
	})
	sort.Strings(classes)
	return classes, err
}

// ClassName converts the path of a Java source file, relative to its source root, to a class name.
func ClassName(path string) string {
	path = strings.TrimSuffix(filepath.ToSlash(path), ".java")
	return strings.ReplaceAll(path, "/", ".")
}
