// Utilities for reading the tcbuild config files.

package core

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/please-build/gcfg"

	"github.com/tcbuild/tcbuild/src/cli"
)

// ConfigFileName is the file name for the typical repo config - this is normally checked in
const ConfigFileName string = ".tcbuildconfig"

// LocalConfigFileName is the file name for the local repo config - this is not normally checked in and used to
// override settings on the local machine.
const LocalConfigFileName string = ".tcbuildconfig.local"

// MachineConfigFileName is the file name for the machine-level config - can use this to override things
// for a particular machine (eg. build machine with a different set of JDKs).
const MachineConfigFileName = "/etc/tcbuildconfig"

// DefaultManifest is the manifest read when none are configured.
const DefaultManifest = "modules.def.yml"

func readConfigFile(config *Configuration, filename string) error {
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // It's not an error to not have the file at all.
	} else if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	log.Debug("Read config from %s", filename)
	return nil
}

// ReadConfigFiles reads config files from the given locations, in order.
// Values are filled in by defaults initially and then overridden by each file in turn.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	// Set default values for slices. These add rather than overwriting so we can't set
	// them upfront as we would with other config values.
	setDefault(&config.Build.Manifest, []string{DefaultManifest})
	return config, config.validate()
}

// setDefault sets a slice of strings in the config if the set one is empty.
func setDefault(conf *[]string, def []string) {
	if len(*conf) == 0 {
		*conf = def
	}
}

// DefaultConfiguration returns the default configuration, before any files are read.
func DefaultConfiguration() *Configuration {
	config := Configuration{}
	config.Build.OutputDir = "build"
	config.Build.Timeout = cli.Duration(10 * time.Minute)
	config.Build.Javac = "javac"
	config.Test.Runner = "java org.junit.runner.JUnitCore"
	config.Test.Timeout = cli.Duration(10 * time.Minute)
	config.Test.ClassSuffix = "Test"
	config.Publish.Retries = 3
	config.Publish.Timeout = cli.Duration(2 * time.Minute)
	config.Metrics.PushTimeout = cli.Duration(2 * time.Second)
	return &config
}

// A JDKConfig describes one JDK that modules can be compiled with.
type JDKConfig struct {
	Home    string `help:"Location of the JDK. If not set the tools are found on the PATH."`
	Version string `help:"Java version of this JDK, passed to javac as --release if set."`
}

// A Configuration contains all the settings that can be configured about tcbuild.
// This is parsed from .tcbuildconfig etc; we also auto-generate help messages from its tags.
type Configuration struct {
	Tcbuild struct {
		Version cli.Version `help:"Defines the version of tcbuild that this repo is supposed to use. Accepts a >= prefix."`
	}
	Build struct {
		Manifest            []string     `help:"Module manifests to read, relative to the repo root. Defaults to modules.def.yml. Missing files are skipped."`
		OutputDir           string       `help:"Directory that build outputs are written to, relative to the repo root."`
		Timeout             cli.Duration `help:"Timeout for each compiler or dependency resolution invocation."`
		TransitiveClasspath bool         `help:"Makes full classpaths include all transitive module dependencies, not just declared ones."`
		Javac               string       `help:"Compiler command; run from the JDK's bin directory when the JDK has a home."`
		JavacFlags          string       `help:"Extra flags passed to every compiler invocation."`
		ResolveCommand      string       `help:"Command run by resolve_dependencies to populate library directories. Runs in the repo root."`
	}
	Test struct {
		Runner      string       `help:"Command used to run test classes; the classpath and class names are appended."`
		Timeout     cli.Duration `help:"Timeout for each test run."`
		JVMArgs     string       `help:"Extra arguments passed to the runner before the classpath."`
		ClassSuffix string       `help:"Java source files whose names end with this are treated as test classes."`
	}
	TestList map[string]*struct {
		Pattern []string `help:"Test class patterns in this list, optionally prefixed with module: to restrict them."`
	}
	JDK     map[string]*JDKConfig
	Variant map[string]*struct {
		Value string `help:"Active value of this variant dimension."`
	}
	Kit map[string]*struct {
		Module []string `help:"Modules whose compiled output and runtime libraries go into this kit."`
	}
	Publish struct {
		URL     cli.URL      `help:"Base URL that kits are uploaded to."`
		Retries int          `help:"Number of times to retry a failed upload."`
		Timeout cli.Duration `help:"Timeout for each upload attempt."`
	}
	Metrics struct {
		PushGatewayURL cli.URL      `help:"URL of a Prometheus pushgateway to send metrics to at the end of a run."`
		PushTimeout    cli.Duration `help:"Timeout for pushing metrics."`
		Label          []string     `help:"Custom labels in the form name=command; the command's output is the label value."`
	}
}

// validate checks a few things that gcfg can't.
func (config *Configuration) validate() error {
	for name, kit := range config.Kit {
		if len(kit.Module) == 0 {
			return fmt.Errorf("kit %s doesn't list any modules", name)
		}
	}
	for name, v := range config.Variant {
		if v.Value == "" {
			return fmt.Errorf("variant %s has no value", name)
		}
	}
	return nil
}

// Variants returns the active variant selection.
func (config *Configuration) Variants() Variants {
	variants := Variants{}
	for name, v := range config.Variant {
		variants[name] = v.Value
	}
	return variants
}

// KitNames returns the names of all configured kits, sorted.
func (config *Configuration) KitNames() []string {
	names := make([]string, 0, len(config.Kit))
	for name := range config.Kit {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyOverride applies a single key=value override to the config, as given on the command line.
// Keys are either section.field or section.subsection.field, so for example
// build.outputdir=out or jdk.java8.home=/opt/java8. variant.<name>=<value> is shorthand
// for variant.<name>.value=<value>.
func (config *Configuration) ApplyOverride(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) == 2 && strings.EqualFold(parts[0], "variant") {
		parts = append(parts, "value")
	}
	var ini string
	switch len(parts) {
	case 2:
		ini = fmt.Sprintf("[%s]\n%s = %s\n", parts[0], parts[1], quoteValue(value))
	case 3:
		ini = fmt.Sprintf("[%s %q]\n%s = %s\n", parts[0], parts[1], parts[2], quoteValue(value))
	default:
		return fmt.Errorf("bad override %s: keys must be section.field or section.subsection.field", key)
	}
	if err := gcfg.ReadStringInto(config, ini); err != nil {
		return fmt.Errorf("bad override %s=%s: %w", key, value, err)
	}
	return config.validate()
}

// ApplyOverrides applies a sequence of key=value overrides, in order.
func (config *Configuration) ApplyOverrides(overrides []cli.KeyValue) error {
	for _, kv := range overrides {
		if err := config.ApplyOverride(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

// quoteValue quotes a value for gcfg so that comment characters and spaces survive.
func quoteValue(value string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value) + `"`
}

// Variants maps a variant dimension to its selected value.
type Variants map[string]string

// Names returns the dimensions that have a selected value, sorted.
func (v Variants) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
