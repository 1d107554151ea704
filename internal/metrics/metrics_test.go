package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromSink_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSink(reg)
	require.NoError(t, err)

	s.CreationRequested()
	s.CreationRequested()
	s.OutcomeProcessed(OutcomeRegistered)
	s.OutcomeProcessed(OutcomeFailed)
	s.OutcomeProcessed(OutcomeRegistered)
	s.Denied("create_instance", "FACTORY_PAUSED")
	s.AdminChanged("set_status")
	s.RegistrySize(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.creations))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.outcomes.WithLabelValues(OutcomeRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.outcomes.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.denials.WithLabelValues("create_instance", "FACTORY_PAUSED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.admin.WithLabelValues("set_status")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.registry))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	require.NoError(t, err)
	second, err := NewPromSink(reg)
	require.NoError(t, err)

	first.CreationRequested()
	second.CreationRequested()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.creations))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSink(reg)
	require.NoError(t, err)
	s.RegistrySize(3)

	path := filepath.Join(t.TempDir(), "factory.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "factory_registry_instances 3"))
}
