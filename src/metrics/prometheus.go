// Package metrics contains support for reporting metrics to an external server,
// currently a Prometheus pushgateway. Because tcbuild runs as a transient process
// we can't wait around for Prometheus to call us, we've got to push to them.
package metrics

import (
	"fmt"
	"os/exec"
	"os/user"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/tcbuild/tcbuild/src/cli/logging"
	"github.com/tcbuild/tcbuild/src/core"
)

var log = logging.Log

type metrics struct {
	url      string
	buildID  string
	timeout  time.Duration
	registry *prometheus.Registry

	mutex      sync.Mutex
	newMetrics bool
	pushes     int

	targetCounter, compileCounter, testCounter *prometheus.CounterVec
	targetHistogram, compileHistogram          *prometheus.HistogramVec
	testHistogram                              *prometheus.HistogramVec
}

// InitFromConfig sets up the metrics for a run from the configuration.
// If no pushgateway is configured the returned recorder discards everything.
func InitFromConfig(config *core.Configuration, buildID string) (core.MetricsRecorder, error) {
	if config.Metrics.PushGatewayURL == "" {
		return core.NopMetrics{}, nil
	}
	labels := map[string]string{}
	for _, label := range config.Metrics.Label {
		name, cmd, found := strings.Cut(label, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid custom metric label %q, should be name=command", label)
		}
		labels[name] = cmd
	}
	m, err := initMetrics(config.Metrics.PushGatewayURL.String(), buildID, time.Duration(config.Metrics.PushTimeout), labels)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initialises a new metrics instance.
// This is deliberately not exposed but is useful for testing.
func initMetrics(url, buildID string, timeout time.Duration, customLabels map[string]string) (*metrics, error) {
	u, err := user.Current()
	if err != nil {
		log.Warning("Can't determine current user name for metrics")
		u = &user.User{Username: "unknown"}
	}
	constLabels := prometheus.Labels{
		"user": u.Username,
		"arch": runtime.GOOS + "_" + runtime.GOARCH,
	}
	for k, v := range customLabels {
		value, err := deriveLabelValue(v)
		if err != nil {
			return nil, err
		}
		constLabels[k] = value
	}

	m := &metrics{
		url:      url,
		buildID:  buildID,
		timeout:  timeout,
		registry: prometheus.NewRegistry(),
	}

	// Count of each target invoked.
	m.targetCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "target_counts",
		Help:        "Count of number of times each target is run",
		ConstLabels: constLabels,
	}, []string{"target", "success"})

	// Count of subtrees compiled.
	m.compileCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "compile_counts",
		Help:        "Count of number of subtrees compiled",
		ConstLabels: constLabels,
	}, []string{"subtree", "success"})

	// Count of test runs.
	m.testCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "test_runs",
		Help:        "Count of number of times we run a set of test classes",
		ConstLabels: constLabels,
	}, []string{"type", "pass"})

	m.targetHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "target_durations_histogram",
		Help:        "Durations of individual targets",
		Buckets:     prometheus.ExponentialBuckets(0.1, 2, 14),
		ConstLabels: constLabels,
	}, []string{"target"})

	m.compileHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "compile_durations_histogram",
		Help:        "Durations of compiling individual subtrees",
		Buckets:     prometheus.LinearBuckets(0, 1, 100),
		ConstLabels: constLabels,
	}, []string{})

	m.testHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "test_durations_histogram",
		Help:        "Durations to run tests",
		Buckets:     prometheus.LinearBuckets(0, 5, 100),
		ConstLabels: constLabels,
	}, []string{})

	for _, c := range []prometheus.Collector{
		m.targetCounter, m.compileCounter, m.testCounter,
		m.targetHistogram, m.compileHistogram, m.testHistogram,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Stop ensures the final metrics are sent before returning.
func (m *metrics) Stop() {
	m.pushMetrics()
}

// RecordTarget records a target having run.
func (m *metrics) RecordTarget(name string, duration time.Duration, err error) {
	m.recordTarget(name, duration, err == nil)
}

// RecordCompile records a subtree having been compiled.
func (m *metrics) RecordCompile(subtree string, duration time.Duration, err error) {
	m.recordCompile(subtree, duration, err == nil)
}

// RecordTest records a set of test classes having been run.
func (m *metrics) RecordTest(t core.TestType, duration time.Duration, err error) {
	m.recordTest(t, duration, err == nil)
}

func (m *metrics) recordTarget(name string, duration time.Duration, success bool) {
	m.targetCounter.WithLabelValues(name, b(success)).Inc()
	m.targetHistogram.WithLabelValues(name).Observe(duration.Seconds())
	m.updated()
}

func (m *metrics) recordCompile(subtree string, duration time.Duration, success bool) {
	m.compileCounter.WithLabelValues(subtree, b(success)).Inc()
	if success {
		m.compileHistogram.WithLabelValues().Observe(duration.Seconds())
	}
	m.updated()
}

func (m *metrics) recordTest(t core.TestType, duration time.Duration, pass bool) {
	m.testCounter.WithLabelValues(string(t), b(pass)).Inc()
	if pass {
		m.testHistogram.WithLabelValues().Observe(duration.Seconds())
	}
	m.updated()
}

func (m *metrics) updated() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.newMetrics = true
}

func b(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

// deadline applies a deadline to an arbitrary function and returns when either the function
// completes or the deadline expires.
func deadline(f func() error, timeout time.Duration) error {
	c := make(chan error, 1)
	go func() {
		c <- f()
	}()
	select {
	case err := <-c:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("metrics push timed out")
	}
}

// pushMetrics attempts to send any new metrics to the server. It returns true if it did.
func (m *metrics) pushMetrics() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.newMetrics {
		return false
	}
	start := time.Now()
	if err := deadline(func() error {
		return push.New(m.url, "tcbuild").Gatherer(m.registry).Grouping("build_id", m.buildID).Push()
	}, m.timeout); err != nil {
		log.Warning("Could not push metrics to the repository: %s", err)
		return false
	}
	m.newMetrics = false
	m.pushes++
	log.Debug("Push #%d of metrics in %0.3fs", m.pushes, time.Since(start).Seconds())
	return true
}

// deriveLabelValue runs a command and returns its output.
func deriveLabelValue(cmd string) (string, error) {
	parts, err := shlex.Split(cmd)
	if err != nil {
		return "", fmt.Errorf("invalid custom metric command [%s]: %w", cmd, err)
	} else if len(parts) == 0 {
		return "", fmt.Errorf("empty custom metric command")
	}
	log.Debug("Running custom label command: %s", cmd)
	b, err := exec.Command(parts[0], parts[1:]...).Output()
	log.Debug("Got output: %s", b)
	if err != nil {
		return "", fmt.Errorf("custom metric command [%s] failed: %w", cmd, err)
	}
	value := strings.TrimSpace(string(b))
	if strings.Contains(value, "\n") {
		return "", fmt.Errorf("return value of custom metric command [%s] contains newlines: %s", cmd, value)
	}
	return value, nil
}
