package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/target"
)

func (b *Builder) showModules(args target.Args) error {
	for _, m := range b.bc.Modules.Modules() {
		fmt.Fprintf(b.out, "%s (jdk: %s)\n", m.Name, m.JDK)
		if len(m.Dependencies) > 0 {
			fmt.Fprintf(b.out, "  dependencies: %s\n", strings.Join(m.Dependencies, ", "))
		}
		if len(m.Groups) > 0 {
			fmt.Fprintf(b.out, "  groups: %s\n", strings.Join(m.Groups, ", "))
		}
	}
	return nil
}

func (b *Builder) showGroups(args target.Args) error {
	groups := b.bc.Modules.Groups()
	for _, name := range groups.Names() {
		members, err := groups.Group(name)
		if err != nil {
			return err
		}
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = m.Name
		}
		fmt.Fprintf(b.out, "%s: %s\n", name, strings.Join(names, " "))
	}
	return nil
}

func (b *Builder) showClasspath(args target.Args) error {
	m, err := b.bc.Modules.Module(args.Module)
	if err != nil {
		return err
	}
	st, err := m.Subtree(args.Subtree)
	if err != nil {
		return err
	}
	classpath, err := b.bc.Classpath(st, core.Full, args.ClasspathType)
	if err != nil {
		return err
	}
	for _, p := range classpath.Paths() {
		fmt.Fprintln(b.out, p)
	}
	return nil
}

func (b *Builder) showTargets(args target.Args) error {
	for _, t := range b.registry.Targets() {
		fmt.Fprintf(b.out, "%-45s %s\n", t.Usage(), t.Description)
	}
	fmt.Fprintf(b.out, "%-45s %s\n", "check_<group>[_<type>]", "Shorthand for check_group <group> [type]")
	fmt.Fprintf(b.out, "%-45s %s\n", "check_<type>", "Shorthand for check_type <type>")
	fmt.Fprintf(b.out, "%-45s %s\n", "create_<kit>", "Shorthand for create_package <kit>")
	fmt.Fprintf(b.out, "%-45s %s\n", "publish_<kit>", "Shorthand for publish_package <kit>")
	return nil
}

// clean removes everything in the output directory apart from the repo lock, which we're holding.
// No module counts as updated afterwards.
func (b *Builder) clean(args target.Args) error {
	for _, m := range b.bc.Modules.Modules() {
		m.ResetSourceUpdated()
	}
	dir := b.bc.Layout.OutputDir
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	lock := core.LockFilePath(b.bc.Layout)
	log.Info("Cleaning %s", dir)
	for _, entry := range entries {
		if p := filepath.Join(dir, entry.Name()); p != lock {
			if err := os.RemoveAll(p); err != nil {
				return err
			}
		}
	}
	return nil
}
