// Package manifest reads the YAML module manifests that define a repo's modules and groups.
//
// A manifest looks like this:
//
//	modules:
//	  - common:
//	      options:
//	        jdk: java8
//	  - app:
//	      dependencies: [common]
//	      options: {jdk: java8, javadoc: true}
//	module-groups:
//	  web: [app]
//	additional-files:
//	  - extra-modules.def.yml
//
// Module directories are named after the module, directly under the repo root.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
)

var log = logging.Log

// manifestFile is the on-disk shape of a manifest. Modules and groups are kept as nodes so
// their declaration order survives decoding.
type manifestFile struct {
	Modules         []yaml.Node `yaml:"modules"`
	ModuleGroups    yaml.Node   `yaml:"module-groups"`
	AdditionalFiles []string    `yaml:"additional-files"`
}

type moduleEntry struct {
	Dependencies []string      `yaml:"dependencies"`
	Options      moduleOptions `yaml:"options"`
}

type moduleOptions struct {
	JDK     string `yaml:"jdk"`
	Javadoc bool   `yaml:"javadoc"`
	Module  bool   `yaml:"module"`
	AspectJ bool   `yaml:"aspectj"`
}

type groupEntry struct {
	group, module string
}

// A Builder reads manifests into a BuildModuleSet.
type Builder struct {
	fs   fs.FS
	root string

	seen   map[string]bool
	defs   []core.ModuleDefinition
	groups []groupEntry
}

// NewBuilder returns a new Builder that reads manifests relative to the given repo root.
func NewBuilder(fsys fs.FS, root string) *Builder {
	return &Builder{
		fs:   fsys,
		root: root,
		seen: map[string]bool{},
	}
}

// Build reads the given manifests, in order, and adds their modules to the set.
// Manifests that don't exist are skipped. Groups are applied once every manifest has been
// read, so a group can refer to a module defined in a later file. Finally the set is validated.
func (b *Builder) Build(set *core.BuildModuleSet, manifests []string) error {
	for _, manifest := range manifests {
		if err := b.read(b.resolve(b.root, manifest)); err != nil {
			return err
		}
	}
	for _, def := range b.defs {
		if _, err := set.Add(def); err != nil {
			return err
		}
	}
	for _, g := range b.groups {
		if err := set.TagModule(g.group, g.module); err != nil {
			return err
		}
	}
	log.Debug("Read %d modules in %d groups", set.Len(), len(set.Groups().Names()))
	return set.Validate()
}

func (b *Builder) resolve(dir, filename string) string {
	if filepath.IsAbs(filename) {
		return fs.NewFilePath(filename).String()
	}
	return fs.NewFilePath(dir, filename).String()
}

// read parses a single manifest and then any additional files it names.
func (b *Builder) read(filename string) error {
	if b.seen[filename] {
		return nil
	}
	b.seen[filename] = true
	data, err := b.fs.ReadFile(filename)
	if os.IsNotExist(err) {
		log.Warning("Module manifest %s doesn't exist, skipping", filename)
		return nil
	} else if err != nil {
		return err
	}
	log.Debug("Reading module manifest %s", filename)
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	for i := range file.Modules {
		if err := b.parseModules(filename, &file.Modules[i]); err != nil {
			return err
		}
	}
	if err := b.parseGroups(filename, &file.ModuleGroups); err != nil {
		return err
	}
	for _, additional := range file.AdditionalFiles {
		if err := b.read(b.resolve(fs.NewFilePath(filename).DirectoryOf().String(), additional)); err != nil {
			return err
		}
	}
	return nil
}

// parseModules parses one item of the modules list, which maps module names to their definitions.
func (b *Builder) parseModules(filename string, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s:%d: each item under modules must map a module name to its definition", filename, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var entry moduleEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return fmt.Errorf("%s: module %s: %w", filename, name, err)
		}
		b.defs = append(b.defs, core.ModuleDefinition{
			Name:         name,
			Root:         filepath.Join(b.root, name),
			JDK:          entry.Options.JDK,
			Dependencies: entry.Dependencies,
			Javadoc:      entry.Options.Javadoc,
			IsModule:     entry.Options.Module,
			AspectJ:      entry.Options.AspectJ,
		})
	}
	return nil
}

// parseGroups parses the module-groups mapping, keeping groups and their modules in order.
func (b *Builder) parseGroups(filename string, node *yaml.Node) error {
	if node.Kind == 0 {
		return nil
	} else if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s:%d: module-groups must map group names to lists of modules", filename, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		group := node.Content[i].Value
		var modules []string
		if err := node.Content[i+1].Decode(&modules); err != nil {
			return fmt.Errorf("%s: module group %s: %w", filename, group, err)
		}
		if group == core.AllGroup {
			return fmt.Errorf("%s: can't redefine the %s module group", filename, core.AllGroup)
		}
		for _, module := range modules {
			b.groups = append(b.groups, groupEntry{group: group, module: module})
		}
	}
	return nil
}

// Load reads the manifests configured for a build into its module set, and checks that every
// module's JDK is configured.
func Load(bc *core.BuildContext) error {
	if err := NewBuilder(bc.FS, bc.Layout.RepoRoot).Build(bc.Modules, bc.Config.Build.Manifest); err != nil {
		return err
	}
	return bc.JDKs.Check(bc.Modules)
}
