package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerToWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "json", "debug")
	logger.Debug().Str("product_id", "p1").Msg("cart_add")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "cart_add", line["message"])
	require.Equal(t, "p1", line["product_id"])
}

func TestNewLoggerToDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "json", "nonsense")
	logger.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
}

func TestDomainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegisterDomainMetrics("test", reg)

	CartMutation("add", nil)
	CartMutation("add", errors.New("boom"))
	DiscountEvaluation("eligible")
	QuoteDuration(2 * time.Millisecond)
	SavedCartRestore("restored")

	require.Equal(t, 1.0, testutil.ToFloat64(CartMutationsTotal.WithLabelValues("add", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(CartMutationsTotal.WithLabelValues("add", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(DiscountEvaluationsTotal.WithLabelValues("eligible")))
	require.Equal(t, 1.0, testutil.ToFloat64(SavedCartRestoresTotal.WithLabelValues("restored")))
}

func TestInitTracerNone(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = InitTracer(context.Background(), TracingConfig{Exporter: "zipkin"})
	require.Error(t, err)
}
