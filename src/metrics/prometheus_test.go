package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcbuild/tcbuild/src/core"
)

const url = "http://localhost:9999"

func TestNoMetrics(t *testing.T) {
	m, err := initMetrics(url, "build1", time.Second, nil)
	require.NoError(t, err)
	assert.False(t, m.pushMetrics(), "Should not push when there aren't metrics")
	assert.Equal(t, 0, m.pushes)
}

func TestPushFailure(t *testing.T) {
	m, err := initMetrics(url, "build1", time.Second, nil)
	require.NoError(t, err)
	m.recordTarget("compile", time.Millisecond, true)
	assert.False(t, m.pushMetrics())
	assert.True(t, m.newMetrics, "Metrics should be kept for a later push")
}

func TestPush(t *testing.T) {
	var requests int32
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, err := initMetrics(srv.URL, "build1", 5*time.Second, nil)
	require.NoError(t, err)
	m.recordTarget("compile", time.Millisecond, true)
	m.recordCompile("app/src", time.Second, true)
	m.recordTest(core.UnitTests, time.Second, false)
	assert.True(t, m.pushMetrics())
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.Equal(t, "/metrics/job/tcbuild/build_id/build1", path)
	assert.False(t, m.pushMetrics(), "Nothing new to push")
}

func TestCounters(t *testing.T) {
	m, err := initMetrics(url, "build1", time.Second, nil)
	require.NoError(t, err)
	m.recordTarget("check", time.Millisecond, true)
	m.recordTarget("check", time.Millisecond, false)
	m.recordTest(core.SystemTests, time.Second, true)
	assert.Equal(t, 1.0, counterValue(t, m.targetCounter.WithLabelValues("check", "true")))
	assert.Equal(t, 1.0, counterValue(t, m.targetCounter.WithLabelValues("check", "false")))
	assert.Equal(t, 1.0, counterValue(t, m.testCounter.WithLabelValues("system", "true")))
}

func TestCustomLabels(t *testing.T) {
	m, err := initMetrics(url, "build1", time.Second, map[string]string{"branch": "echo main"})
	require.NoError(t, err)
	m.recordTarget("compile", time.Millisecond, true)
	families, err := m.registry.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() == "target_counts" {
			found = true
			assert.Contains(t, family.Metric[0].String(), "main")
		}
	}
	assert.True(t, found)

	_, err = initMetrics(url, "build1", time.Second, map[string]string{"branch": "false"})
	assert.Error(t, err)
	_, err = initMetrics(url, "build1", time.Second, map[string]string{"branch": "printf 'a\\nb'"})
	assert.Error(t, err)
}

func TestInitFromConfig(t *testing.T) {
	config := core.DefaultConfiguration()
	rec, err := InitFromConfig(config, "build1")
	assert.NoError(t, err)
	assert.Equal(t, core.NopMetrics{}, rec)

	config.Metrics.PushGatewayURL = url
	config.Metrics.Label = []string{"nope"}
	_, err = InitFromConfig(config, "build1")
	assert.Error(t, err)

	config.Metrics.Label = []string{fmt.Sprintf("host=%s", "echo ci")}
	rec, err = InitFromConfig(config, "build1")
	require.NoError(t, err)
	m, ok := rec.(*metrics)
	require.True(t, ok)
	assert.Equal(t, "build1", m.buildID)
}

func TestRecorderMethods(t *testing.T) {
	m, err := initMetrics(url, "build1", time.Second, nil)
	require.NoError(t, err)
	var rec core.MetricsRecorder = m
	rec.RecordCompile("app/src", time.Second, fmt.Errorf("didn't compile"))
	assert.Equal(t, 1.0, counterValue(t, m.compileCounter.WithLabelValues("app/src", "false")))
	assert.True(t, m.newMetrics)
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.GetCounter().GetValue()
}
