package correlate

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/cascade/internal/depgraph"
	"github.com/moolen/cascade/internal/models"
)

func TestSweeperClosesIdleIncidents(t *testing.T) {
	sink := &captureSink{}
	c := New(time.Minute, depgraph.Default(), sink, NewMetrics(prometheus.NewRegistry()))

	c.Append(models.Event{
		ID:        "ev-1",
		Tenant:    "acme",
		Source:    models.SourceErrorTracker,
		Service:   "user-service",
		Signature: "timeouterror",
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Text:      "TimeoutError: boom",
	})
	require.Equal(t, 1, c.OpenCount("acme"))

	s := NewSweeper(c, 10*time.Millisecond)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return c.OpenCount("acme") == 0 && len(sink.incidents()) == 1
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
