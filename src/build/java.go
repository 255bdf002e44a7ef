package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/process"
)

// classpathSeparator separates entries on a Java command line.
var classpathSeparator = string(filepath.ListSeparator)

// A step describes a running external command for progress messages.
type step struct {
	name, description string
}

func (s step) String() string              { return s.name }
func (s step) ProgressDescription() string { return s.description }

// tool returns the command line for a configured tool. If the command is a bare JDK tool name
// (e.g. javac or java) and the JDK has a home, the tool is run from the JDK's bin directory.
func tool(command string, jdk *core.JDK) ([]string, error) {
	argv, err := process.SplitCommand(command)
	if err != nil {
		return nil, err
	}
	if jdk != nil && !strings.ContainsRune(argv[0], filepath.Separator) {
		if argv[0] == "javac" || argv[0] == "java" {
			argv[0] = jdk.Tool(argv[0])
		}
	}
	return argv, nil
}

// A JavacCompiler compiles subtrees by running javac.
type JavacCompiler struct {
	executor *process.Executor
	config   *core.Configuration
}

// NewJavacCompiler returns a new JavacCompiler.
func NewJavacCompiler(executor *process.Executor, config *core.Configuration) *JavacCompiler {
	return &JavacCompiler{executor: executor, config: config}
}

// Compile implements the core.Compiler interface. It reports output as produced only if some
// class file was created or rewritten, which javac doesn't tell us directly.
// Sources are passed in an argument file next to the output directory since there can be a lot of them.
func (c *JavacCompiler) Compile(ctx context.Context, req core.CompileRequest) (bool, error) {
	if len(req.Sources) == 0 {
		return false, nil
	}
	argv, err := tool(c.config.Build.Javac, req.JDK)
	if err != nil {
		return false, err
	}
	if c.config.Build.JavacFlags != "" {
		flags, err := process.SplitCommand(c.config.Build.JavacFlags)
		if err != nil {
			return false, err
		}
		argv = append(argv, flags...)
	}
	if err := os.MkdirAll(req.OutputDir, fs.DirPermissions); err != nil {
		return false, err
	}
	argFile := req.OutputDir + ".sources"
	if err := os.WriteFile(argFile, []byte(strings.Join(quoteArgs(req.Sources), "\n")+"\n"), 0644); err != nil {
		return false, err
	}
	if req.JDK != nil && req.JDK.Version != "" {
		argv = append(argv, "--release", req.JDK.Version)
	}
	argv = append(argv, "-d", req.OutputDir)
	if req.Classpath.Len() > 0 {
		argv = append(argv, "-cp", req.Classpath.Join(classpathSeparator))
	}
	argv = append(argv, "@"+argFile)
	before, err := classFiles(req.OutputDir)
	if err != nil {
		return false, err
	}
	s := step{name: req.Subtree.String(), description: "compiling"}
	_, combined, err := c.executor.ExecWithTimeout(ctx, s, req.WorkDir, nil, time.Duration(c.config.Build.Timeout), false, argv)
	if err != nil {
		return false, fmt.Errorf("%w\n%s", err, combined)
	}
	after, err := classFiles(req.OutputDir)
	if err != nil {
		return false, err
	}
	for name, mtime := range after {
		if prev, present := before[name]; !present || !prev.Equal(mtime) {
			return true, nil
		}
	}
	return false, nil
}

// classFiles returns the modification time of each class file under a directory.
func classFiles(dir string) (map[string]time.Time, error) {
	files := map[string]time.Time{}
	err := fs.Walk(dir, func(name string, isDir bool) error {
		if isDir || !strings.HasSuffix(name, ".class") {
			return nil
		}
		info, err := os.Stat(name)
		if err != nil {
			return err
		}
		files[name] = info.ModTime()
		return nil
	})
	return files, err
}

// quoteArgs quotes arguments for a javac argument file, which treats whitespace as a separator.
func quoteArgs(args []string) []string {
	ret := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \t\"'") {
			arg = `"` + strings.ReplaceAll(filepath.ToSlash(arg), `"`, `\"`) + `"`
		}
		ret[i] = arg
	}
	return ret
}

// A JUnitRunner runs test classes with a command-line JUnit runner.
type JUnitRunner struct {
	executor *process.Executor
	config   *core.Configuration
}

// NewJUnitRunner returns a new JUnitRunner.
func NewJUnitRunner(executor *process.Executor, config *core.Configuration) *JUnitRunner {
	return &JUnitRunner{executor: executor, config: config}
}

// RunTests implements the core.TestRunner interface.
// The runner's output is written to output.txt in the results directory; the directory is also
// exported as TCBUILD_TEST_RESULTS for runners that write JUnit XML reports.
func (r *JUnitRunner) RunTests(ctx context.Context, req core.TestRequest) error {
	argv, err := tool(r.config.Test.Runner, req.JDK)
	if err != nil {
		return err
	}
	cmd := []string{argv[0]}
	if r.config.Test.JVMArgs != "" {
		jvmArgs, err := process.SplitCommand(r.config.Test.JVMArgs)
		if err != nil {
			return err
		}
		cmd = append(cmd, jvmArgs...)
	}
	cmd = append(cmd, "-Dtcbuild.test.type="+string(req.Type), "-cp", req.Classpath.Join(classpathSeparator))
	cmd = append(cmd, argv[1:]...)
	cmd = append(cmd, req.Classes...)
	if err := os.MkdirAll(req.ResultsDir, fs.DirPermissions); err != nil {
		return err
	}
	env := []string{"TCBUILD_TEST_RESULTS=" + req.ResultsDir, "TCBUILD_TEST_TYPE=" + string(req.Type)}
	s := step{name: req.Subtree.String(), description: "testing"}
	_, combined, err := r.executor.ExecWithTimeout(ctx, s, req.WorkDir, env, time.Duration(r.config.Test.Timeout), false, cmd)
	if werr := os.WriteFile(filepath.Join(req.ResultsDir, "output.txt"), combined, 0644); werr != nil {
		log.Warning("Failed to write test output for %s: %s", req.Subtree, werr)
	}
	if err != nil {
		return fmt.Errorf("%w\n%s", err, combined)
	}
	return nil
}

// A CommandResolver resolves dependencies by running the configured resolve command.
type CommandResolver struct {
	executor *process.Executor
	config   *core.Configuration
	repoRoot string
}

// NewCommandResolver returns a new CommandResolver.
func NewCommandResolver(executor *process.Executor, config *core.Configuration, repoRoot string) *CommandResolver {
	return &CommandResolver{executor: executor, config: config, repoRoot: repoRoot}
}

// Resolve implements the core.DependencyResolver interface.
// The module names are passed in TCBUILD_MODULES, separated by spaces.
func (r *CommandResolver) Resolve(ctx context.Context, modules *core.BuildModuleSet) error {
	if r.config.Build.ResolveCommand == "" {
		log.Debug("No resolve command configured")
		return nil
	}
	env := []string{"TCBUILD_MODULES=" + strings.Join(modules.Names(), " ")}
	s := step{name: "resolve_dependencies", description: "resolving"}
	_, combined, err := r.executor.ExecWithTimeoutShell(ctx, s, r.repoRoot, env, time.Duration(r.config.Build.Timeout), false, r.config.Build.ResolveCommand)
	if err != nil {
		return fmt.Errorf("%w\n%s", err, combined)
	}
	return nil
}
