package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_AttachesEveryCollectorOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	// registering the same collectors on the same registry twice must fail
	assert.Error(t, Register(reg))
}

func TestQueriesTotal_IncrementsPerNamespace(t *testing.T) {
	QueriesTotal.Reset()
	QueriesTotal.WithLabelValues("ns-a").Inc()
	QueriesTotal.WithLabelValues("ns-a").Inc()
	QueriesTotal.WithLabelValues("ns-b").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(QueriesTotal.WithLabelValues("ns-a")))
}
