package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tcbuild/tcbuild/src/cli"
	"github.com/tcbuild/tcbuild/src/core"
	"github.com/tcbuild/tcbuild/src/fs"
	"github.com/tcbuild/tcbuild/src/target"
	"github.com/tcbuild/tcbuild/src/test"
)

// ErrNoSuchTestList is returned for a test list that isn't configured.
var ErrNoSuchTestList = errors.New("no such test list")

func (b *Builder) check(args target.Args) error {
	return b.runSelected(func() ([]test.Selection, error) { return b.selector.All("") })
}

func (b *Builder) checkModule(args target.Args) error {
	return b.runSelected(func() ([]test.Selection, error) { return b.selector.Module(args.Module, args.Type) })
}

func (b *Builder) checkGroup(args target.Args) error {
	return b.runSelected(func() ([]test.Selection, error) { return b.selector.Group(args.Group, args.Type) })
}

func (b *Builder) checkType(args target.Args) error {
	return b.runSelected(func() ([]test.Selection, error) { return b.selector.All(args.Type) })
}

func (b *Builder) checkList(args target.Args) error {
	list, present := b.bc.Config.TestList[args.Name]
	if !present {
		names := make([]string, 0, len(b.bc.Config.TestList))
		for name := range b.bc.Config.TestList {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("%w: %s%s", ErrNoSuchTestList, args.Name, cli.PrettyPrintSuggestion(args.Name, names, 3))
	}
	return b.runSelected(func() ([]test.Selection, error) {
		if len(list.Pattern) == 0 {
			b.bc.Results.AddMismatch("Test list %s doesn't contain any patterns", args.Name)
			return nil, nil
		}
		return b.selector.Patterns(list.Pattern)
	})
}

func (b *Builder) checkFile(args target.Args) error {
	filename := args.Name
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(b.bc.Layout.RepoRoot, filename)
	}
	return b.runSelected(func() ([]test.Selection, error) { return b.selector.File(filename) })
}

func (b *Builder) checkOne(args target.Args) error {
	return b.runSelected(func() ([]test.Selection, error) { return b.selector.One(args.Name, args.Module) })
}

// runSelected compiles everything, selects the tests to run and runs them.
// The selection happens after compiling since resolving dependencies can change the set of test classes.
func (b *Builder) runSelected(selectTests func() ([]test.Selection, error)) error {
	if err := b.dispatcher.Depends("compile"); err != nil {
		return err
	}
	selections, err := selectTests()
	if err != nil {
		return err
	}
	if len(selections) == 0 {
		log.Warning("No tests to run")
		return nil
	}
	log.Notice("Running %d test classes from %d subtrees", test.Count(selections), len(selections))
	for _, sel := range selections {
		if err := b.runTests(sel); err != nil {
			return err
		}
	}
	return nil
}

// runTests runs one selection of tests. Test failures are recorded in the results rather than returned;
// only configuration problems are returned as errors.
func (b *Builder) runTests(sel test.Selection) error {
	st := sel.Subtree
	jdk, err := b.bc.JDKFor(st.Module)
	if err != nil {
		return err
	}
	classpath, err := b.bc.Classpath(st, core.Full, core.RuntimeClasspath)
	if err != nil {
		return err
	}
	resultsDir := b.bc.Layout.TestResultsDir(st.Module.Name, st.Name)
	if err := os.RemoveAll(resultsDir); err != nil {
		return err
	}
	log.Notice("Running %d %s tests in %s", len(sel.Classes), sel.Type, st)
	start := time.Now()
	err = b.bc.TestRunner.RunTests(b.ctx, core.TestRequest{
		Subtree:    st,
		JDK:        jdk,
		Type:       sel.Type,
		Classes:    sel.Classes,
		Classpath:  classpath,
		ResultsDir: resultsDir,
		WorkDir:    st.Module.Root,
	})
	duration := time.Since(start)
	if suite, rerr := test.ReadResultsDir(fs.HostFS, resultsDir); rerr == nil && suite.Tests() > 0 {
		log.Notice("%s: %s", st, suite.Summary())
		for _, c := range suite.Failed() {
			log.Error("%s.%s %s: %s", c.ClassName, c.Name, c.Status, c.Message)
		}
		if failed := len(suite.Failed()); failed > 0 && err == nil {
			err = fmt.Errorf("%d of %d tests failed", failed, suite.Tests())
		}
	}
	b.bc.Metrics.RecordTest(sel.Type, duration, err)
	b.bc.Results.Add(core.Result{Kind: core.TestResult, Name: st.String(), Duration: duration, Err: err})
	return nil
}
