package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/cascade/internal/models"
)

func closedIncident(id, tenant, correlationID string, eventCount int) models.Incident {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := make([]models.Event, eventCount)
	for i := range events {
		events[i] = models.Event{
			ID:        fmt.Sprintf("%s-ev-%d", id, i),
			Source:    models.SourceOrchestrator,
			Service:   "checkout",
			Signature: "oomkilled",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Text:      "OOMKilled",
		}
	}
	return models.Incident{
		ID:            id,
		Tenant:        tenant,
		CorrelationID: correlationID,
		StartTime:     base,
		EndTime:       base.Add(time.Duration(eventCount) * time.Second),
		Severity:      models.TierP0,
		IncidentType:  "oomkilled",
		State:         models.IncidentClosed,
		Events:        events,
	}
}

func TestPublishAndGet(t *testing.T) {
	s := New()
	s.Publish(closedIncident("inc-1", "acme", "corr-1", 3))

	inc, ok := s.Get("inc-1")
	require.True(t, ok)
	assert.Equal(t, "inc-1", inc.ID)
	assert.Equal(t, 3, inc.EventCount())

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestListNewestFirstWithCorrelationFilter(t *testing.T) {
	s := New()
	s.Publish(closedIncident("inc-1", "acme", "corr-a", 1))
	s.Publish(closedIncident("inc-2", "acme", "corr-b", 1))
	s.Publish(closedIncident("inc-3", "acme", "corr-a", 1))
	s.Publish(closedIncident("inc-4", "other", "corr-a", 1))

	all, _, err := s.List("acme", "", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "inc-3", all[0].ID, "newest first")

	filtered, _, err := s.List("acme", "corr-a", nil)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, sum := range filtered {
		assert.Equal(t, "corr-a", sum.CorrelationID)
	}
}

func TestListPagination(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Publish(closedIncident(fmt.Sprintf("inc-%d", i), "acme", "", 1))
	}

	page1, resp, err := s.List("acme", "", &models.PaginationRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.True(t, resp.HasMore)

	page2, resp, err := s.List("acme", "", &models.PaginationRequest{PageSize: 2, Cursor: resp.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)

	page3, resp, err := s.List("acme", "", &models.PaginationRequest{PageSize: 2, Cursor: resp.NextCursor})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.False(t, resp.HasMore)
	assert.Empty(t, resp.NextCursor)
}

func TestEvidencePaging(t *testing.T) {
	s := New()
	s.Publish(closedIncident("inc-1", "acme", "", 7))

	page1, resp, err := s.Evidence("inc-1", &models.PaginationRequest{PageSize: 3})
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.True(t, resp.HasMore)

	page2, resp, err := s.Evidence("inc-1", &models.PaginationRequest{PageSize: 3, Cursor: resp.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2, 3)
	require.True(t, resp.HasMore)

	page3, resp, err := s.Evidence("inc-1", &models.PaginationRequest{PageSize: 3, Cursor: resp.NextCursor})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.False(t, resp.HasMore)

	// pages do not overlap
	assert.NotEqual(t, page1[0].ID, page2[0].ID)
	assert.NotEqual(t, page2[0].ID, page3[0].ID)
}

func TestEvidenceUnknownIncident(t *testing.T) {
	s := New()
	_, _, err := s.Evidence("missing", nil)
	assert.Error(t, err)
}

func TestEvidenceRejectsBadCursor(t *testing.T) {
	s := New()
	s.Publish(closedIncident("inc-1", "acme", "", 2))
	_, _, err := s.Evidence("inc-1", &models.PaginationRequest{Cursor: "%%%"})
	assert.Error(t, err)
}

func TestSnapshotIsolation(t *testing.T) {
	s := New()
	s.Publish(closedIncident("inc-1", "acme", "", 2))

	snap := s.Snapshot("acme")
	require.Len(t, snap, 1)
	snap[0].IncidentType = "mutated"

	inc, _ := s.Get("inc-1")
	assert.Equal(t, "oomkilled", inc.IncidentType, "snapshot mutation must not leak into the store")
}

func TestCountAndTenants(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Count("acme"))
	s.Publish(closedIncident("inc-1", "acme", "", 1))
	s.Publish(closedIncident("inc-2", "other", "", 1))
	assert.Equal(t, 1, s.Count("acme"))
	assert.ElementsMatch(t, []string{"acme", "other"}, s.Tenants())
}
