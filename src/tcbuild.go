package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/tcbuild/tcbuild/src/build"
	"github.com/tcbuild/tcbuild/src/cli"
	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/kit"
	"github.com/tcbuild/tcbuild/src/manifest"
	"github.com/tcbuild/tcbuild/src/metrics"
	"github.com/tcbuild/tcbuild/src/output"
	"github.com/tcbuild/tcbuild/src/process"
	"github.com/tcbuild/tcbuild/src/target"
)

var log = logging.Log

var opts struct {
	RepoRoot      string        `short:"r" long:"repo_root" description:"Root of repository to build."`
	Verbosity     cli.Verbosity `short:"v" long:"verbosity" description:"Verbosity of output (error, warning, notice, info, debug)" default:"notice"`
	LogFile       string        `long:"log_file" description:"File to echo full logging output to"`
	LogFileLevel  cli.Verbosity `long:"log_file_level" description:"Log level for file output" default:"debug"`
	NoLock        bool          `long:"nolock" description:"Don't attempt to lock the repo exclusively. Use with care."`
	PrintCommands bool          `long:"print_commands" description:"Print each compile / test command as it's run"`
	Colour        bool          `long:"colour" description:"Forces coloured output."`
	NoColour      bool          `long:"nocolour" description:"Forces colourless output."`
	Version       bool          `long:"version" description:"Print the version of the tool"`

	Args struct {
		Targets []string `positional-arg-name:"targets" description:"Targets to run, each followed by its arguments. key=value arguments override configuration."`
	} `positional-args:"true"`
}

func main() {
	cli.ParseFlagsFromArgsOrDie("tcbuild", &opts, os.Args)
	if opts.Version {
		os.Stdout.WriteString("tcbuild version " + core.TcbuildVersion.String() + "\n")
		os.Exit(0)
	}
	if opts.Colour {
		cli.ShowColouredOutput = true
	} else if opts.NoColour {
		cli.ShowColouredOutput = false
	}
	cli.InitLogging(opts.Verbosity)
	if opts.LogFile != "" {
		cli.InitFileLogging(opts.LogFile, opts.LogFileLevel, false)
	}
	os.Exit(run(opts.Args.Targets))
}

// run runs a build and returns the exit code; that's the number of failures, or 1 if we
// couldn't get as far as running anything. It never exits itself so the deferred cleanup
// (releasing the repo lock, pushing metrics) always happens.
func run(args []string) int {
	defer cli.RunAtExitHandlers()
	start := time.Now()
	targets, overrides := cli.SplitKeyValues(args)
	if len(targets) == 0 {
		log.Errorf("No targets given; try tcbuild targets to see what's available")
		return 1
	}

	root := opts.RepoRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Errorf("%s", err)
			return 1
		}
		if root, err = core.FindRepoRoot(wd); err != nil {
			log.Errorf("%s", err)
			return 1
		}
		log.Debug("Found repo root at %s", root)
	}
	// tcbuild always runs from the repo root, so move there now.
	if err := os.Chdir(root); err != nil {
		log.Errorf("%s", err)
		return 1
	}

	config, err := core.ReadConfigFiles(core.ConfigFiles(root))
	if err != nil {
		log.Errorf("Error reading config file: %s", err)
		return 1
	} else if err := config.ApplyOverrides(overrides); err != nil {
		log.Errorf("%s", err)
		return 1
	} else if !config.Tcbuild.Version.Accepts(core.TcbuildVersion) {
		log.Errorf("This repo requires tcbuild %s, but this is %s", config.Tcbuild.Version, core.TcbuildVersion)
		return 1
	}

	bc := core.NewBuildContext(config, fs.HostFS, root)
	if !opts.NoLock {
		lock, err := core.AcquireRepoLock(bc.Layout, os.Args[1:])
		if err != nil {
			log.Errorf("%s", err)
			return 1
		}
		defer lock.Release()
		cli.AtExit(lock.Release)
	}

	executor := process.New(opts.PrintCommands)
	bc.Compiler = build.NewJavacCompiler(executor, config)
	bc.TestRunner = build.NewJUnitRunner(executor, config)
	bc.Resolver = build.NewCommandResolver(executor, config, root)
	var publisher *kit.Publisher
	if config.Publish.URL != "" {
		publisher = kit.NewPublisher(config.Publish.URL.String(), config.Publish.Retries, time.Duration(config.Publish.Timeout))
	}
	bc.Packager = kit.NewPackager(publisher)

	if err := manifest.Load(bc); err != nil {
		log.Errorf("%s", err)
		return 1
	}
	if bc.Metrics, err = metrics.InitFromConfig(config, bc.ID); err != nil {
		log.Errorf("%s", err)
		return 1
	}
	defer bc.Metrics.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cli.AtExit(cancel)

	builder := build.New(ctx, bc, os.Stdout)
	builder.Dispatcher().Observer = func(inv target.Invocation, duration time.Duration, err error) {
		bc.Metrics.RecordTarget(inv.Name, duration, err)
	}
	if err := builder.Run(targets); err != nil && !errors.Is(err, build.ErrBuildFailed) {
		log.Errorf("%s", err)
		return 1
	}
	log.Info("Finished in %s", time.Since(start))
	return output.PrintSummary(os.Stderr, bc.ID, bc.Results, cli.ShowColouredOutput)
}
