package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/cascade/internal/advisor"
	"github.com/moolen/cascade/internal/embedding"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/store"
)

func TestSchedulerPublishesRunsForAllTenants(t *testing.T) {
	st := store.New()
	eng := New(Options{}, st, nil,
		embedding.NewHashingProvider(embedding.DefaultDims), advisor.New(),
		NewMetrics(prometheus.NewRegistry()))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, tenant := range []string{"acme", "globex"} {
		st.Publish(models.Incident{
			ID:           "inc-" + tenant,
			Tenant:       tenant,
			StartTime:    base,
			EndTime:      base.Add(time.Minute),
			Severity:     models.TierP1,
			IncidentType: "oomkilled",
			State:        models.IncidentClosed,
			Events: []models.Event{{
				ID:        "ev-" + tenant,
				Source:    models.SourceOrchestrator,
				Service:   "order-service",
				Signature: "oomkilled",
				Timestamp: base,
				Text:      "OOMKilled: container killed",
			}},
		})
	}

	s := NewScheduler(eng, st, 10*time.Millisecond)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		_, okA := eng.Published("acme")
		_, okB := eng.Published("globex")
		return okA && okB
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
