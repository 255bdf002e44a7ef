// Package process implements generic subprocess management functions.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/alessio/shellescape"
	"github.com/google/shlex"

	"github.com/tcbuild/tcbuild/src/cli"
	"github.com/tcbuild/tcbuild/src/cli/logging"
)

var log = logging.Log

// An Executor handles starting, running and monitoring a set of subprocesses.
// It registers as a signal handler to attempt to terminate them all at process exit.
type Executor struct {
	printCommands bool
	processes     map[*exec.Cmd]struct{}
	mutex         sync.Mutex
}

// New returns a new Executor. If printCommands is true every command is logged before it runs.
func New(printCommands bool) *Executor {
	o := &Executor{
		printCommands: printCommands,
		processes:     map[*exec.Cmd]struct{}{},
	}
	cli.AtExit(o.killAll) // Kill any subprocess if we are ourselves killed
	return o
}

// A Target is a minimal interface of what we need from whatever is running the command.
type Target interface {
	// String returns a string representation of this target.
	String() string
	// ProgressDescription returns a description of what the target is doing as it runs.
	ProgressDescription() string
}

// ExecWithTimeout runs an external command with a timeout.
// If the command times out (or the context is cancelled) the returned error wraps the context's error.
// If showOutput is true then output will be printed to stderr as well as returned.
// It returns the stdout only, combined stdout and stderr and any error that occurred.
func (e *Executor) ExecWithTimeout(ctx context.Context, target Target, dir string, env []string, timeout time.Duration, showOutput bool, argv []string) ([]byte, []byte, error) {
	if len(argv) == 0 {
		return nil, nil, fmt.Errorf("empty command")
	}
	// We deliberately don't attach this context to the command, so we have better
	// control over how the process gets terminated.
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if e.printCommands {
		log.Notice("%s", shellescape.QuoteCommand(argv))
	}
	cmd := e.ExecCommand(argv[0], argv[1:]...)
	defer e.removeProcess(cmd)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}

	var out bytes.Buffer
	var outerr safeBuffer
	if showOutput {
		cmd.Stdout = io.MultiWriter(os.Stderr, &out, &outerr)
		cmd.Stderr = io.MultiWriter(os.Stderr, &outerr)
	} else {
		cmd.Stdout = io.MultiWriter(&out, &outerr)
		cmd.Stderr = &outerr
	}
	if target != nil {
		go logProgress(ctx, target)
	}
	// Start the command, wait for the timeout & then kill it.
	// We deliberately don't use CommandContext because it will only send SIGKILL which
	// child processes can't handle themselves.
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	ch := make(chan error, 1)
	go runCommand(cmd, ch)
	var err error
	select {
	case err = <-ch:
		// Do nothing.
	case <-ctx.Done():
		e.KillProcess(cmd)
		err = fmt.Errorf("%s: %w", outerr.String(), ctx.Err())
	}
	return out.Bytes(), outerr.Bytes(), err
}

// runCommand runs a command and signals on the given channel when it's done.
func runCommand(cmd *exec.Cmd, ch chan error) {
	ch <- cmd.Wait()
}

// ExecWithTimeoutShell runs an external command within a Bash shell.
// Other arguments are as ExecWithTimeout.
// Note that the command is deliberately a single string.
func (e *Executor) ExecWithTimeoutShell(ctx context.Context, target Target, dir string, env []string, timeout time.Duration, showOutput bool, cmd string) ([]byte, []byte, error) {
	c := []string{"bash", "--noprofile", "--norc", "-u", "-o", "pipefail", "-c", cmd}
	return e.ExecWithTimeout(ctx, target, dir, env, timeout, showOutput, c)
}

// KillProcess kills a process, attempting to send it a SIGTERM first followed by a SIGKILL
// shortly after if it hasn't exited.
func (e *Executor) KillProcess(cmd *exec.Cmd) {
	success := killProcess(cmd, syscall.SIGTERM, 30*time.Millisecond)
	if !killProcess(cmd, syscall.SIGKILL, time.Second) && !success {
		log.Error("Failed to kill inferior process")
	}
	e.removeProcess(cmd)
}

func (e *Executor) removeProcess(cmd *exec.Cmd) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.processes, cmd)
}

func (e *Executor) registerProcess(cmd *exec.Cmd) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.processes[cmd] = struct{}{}
}

// killProcess implements the two-step killing of processes with a SIGTERM and a SIGKILL if
// that's unsuccessful. It returns true if the process exited within the timeout.
func killProcess(cmd *exec.Cmd, sig syscall.Signal, timeout time.Duration) bool {
	if cmd.Process == nil {
		log.Debug("Not terminating process, it seems to have not started yet")
		return false
	}
	log.Debug("Sending signal %s to -%d", sig, cmd.Process.Pid)
	syscall.Kill(-cmd.Process.Pid, sig) // Kill the group - we always set one in ExecCommand.
	ch := make(chan error, 1)
	go runCommand(cmd, ch)
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// logProgress logs a message once a minute until the given context has expired.
// Used to provide some notion of progress while waiting for external commands.
func logProgress(ctx context.Context, target Target) {
	name := target.String()
	msg := target.ProgressDescription()
	t := time.NewTicker(1 * time.Minute)
	defer t.Stop()
	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if i == 1 {
				log.Notice("%s still %s after 1 minute", name, msg)
			} else {
				log.Notice("%s still %s after %d minutes", name, msg, i)
			}
		}
	}
}

// safeBuffer is an io.Writer that ensures that only one thread writes to it at a time.
// Both stdout and stderr write to it and os/exec only serialises writes when they share a writer.
type safeBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (sb *safeBuffer) Write(b []byte) (int, error) {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.Write(b)
}

func (sb *safeBuffer) Bytes() []byte {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.Bytes()
}

func (sb *safeBuffer) String() string {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.String()
}

// killAll kills all subprocesses of this executor.
func (e *Executor) killAll() {
	e.mutex.Lock()
	processes := make([]*exec.Cmd, 0, len(e.processes))
	for proc := range e.processes {
		processes = append(processes, proc)
	}
	e.mutex.Unlock()

	if len(processes) > 0 {
		var wg sync.WaitGroup
		wg.Add(len(processes))
		for _, proc := range processes {
			go func(proc *exec.Cmd) {
				e.KillProcess(proc)
				wg.Done()
			}(proc)
		}
		wg.Wait()
	}
}

// SplitCommand splits a configured command line (e.g. "java -Xmx1g org.junit.runner.JUnitCore")
// into its arguments, following shell quoting rules, and appends any extra arguments.
func SplitCommand(command string, extra ...string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", command, err)
	} else if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return append(argv, extra...), nil
}

// QuoteCommand returns a command line as it could be pasted into a shell.
func QuoteCommand(argv []string) string {
	return shellescape.QuoteCommand(argv)
}
