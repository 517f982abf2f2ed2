package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/truckcharge/core/factory"
	coremetrics "github.com/kilianp07/truckcharge/core/metrics"
)

func TestBuiltinSinks(t *testing.T) {
	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &PromSink{}, s)

	// Influx falls back to a NopSink when the server cannot be reached.
	s, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": "http://127.0.0.1:1", "org": "o", "bucket": "b"},
	}})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, s)
}
