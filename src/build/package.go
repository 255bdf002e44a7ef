package build

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tcbuild/tcbuild/src/cli"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/kit"
	"github.com/tcbuild/tcbuild/src/target"
)

// ErrNoSuchKit is returned for a kit that isn't configured.
var ErrNoSuchKit = errors.New("no such kit")

func (b *Builder) dist(args target.Args) error {
	if err := b.dispatcher.Depends("compile"); err != nil {
		return err
	}
	names := b.bc.Config.KitNames()
	if len(names) == 0 {
		log.Warning("No kits are configured")
	}
	for _, name := range names {
		if err := b.dispatcher.Invoke("create_package", name); err != nil {
			return err
		}
	}
	return nil
}

// kitFile returns where the named kit is written.
func (b *Builder) kitFile(name string) string {
	return filepath.Join(b.bc.Layout.KitsDir(), name+kit.Extension)
}

func (b *Builder) kitModules(name string) ([]string, error) {
	k, present := b.bc.Config.Kit[name]
	if !present {
		return nil, fmt.Errorf("%w: %s%s", ErrNoSuchKit, name, cli.PrettyPrintSuggestion(name, b.bc.Config.KitNames(), 3))
	}
	return k.Module, nil
}

func (b *Builder) createPackage(args target.Args) error {
	modules, err := b.kitModules(args.Name)
	if err != nil {
		return err
	}
	if err := b.dispatcher.Depends("compile"); err != nil {
		return err
	}
	dest := b.kitFile(args.Name)
	if fs.PathExists(dest) && !b.anyUpdated(modules) {
		log.Notice("Kit %s is up to date", args.Name)
		return nil
	}
	entries, err := kit.Entries(b.bc, modules)
	if err != nil {
		return err
	}
	start := time.Now()
	size, err := b.bc.Packager.Create(b.ctx, dest, entries)
	b.bc.Results.Add(core.Result{Kind: core.PackageResult, Name: args.Name, Duration: time.Since(start), Err: err})
	if err != nil {
		return fmt.Errorf("%w: kit %s wasn't created", ErrBuildFailed, args.Name)
	}
	log.Notice("Created %s (%s)", dest, humanize.Bytes(uint64(size)))
	return nil
}

// anyUpdated returns true if any of the named modules was recompiled in this run.
func (b *Builder) anyUpdated(modules []string) bool {
	for _, name := range modules {
		if m, err := b.bc.Modules.Module(name); err != nil || m.SourceUpdated() {
			return true
		}
	}
	return false
}

func (b *Builder) publishPackage(args target.Args) error {
	if err := b.dispatcher.Invoke("create_package", args.Name); err != nil {
		return err
	}
	start := time.Now()
	err := b.bc.Packager.Publish(b.ctx, args.Name, b.kitFile(args.Name))
	b.bc.Results.Add(core.Result{Kind: core.PublishResult, Name: args.Name, Duration: time.Since(start), Err: err})
	if err != nil {
		return fmt.Errorf("%w: kit %s wasn't published", ErrBuildFailed, args.Name)
	}
	return nil
}
