package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/cascade/internal/advisor"
	"github.com/moolen/cascade/internal/clustering"
	"github.com/moolen/cascade/internal/correlate"
	"github.com/moolen/cascade/internal/depgraph"
	"github.com/moolen/cascade/internal/embedding"
	"github.com/moolen/cascade/internal/engine"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/normalize"
	"github.com/moolen/cascade/internal/severity"
	"github.com/moolen/cascade/internal/store"
)

type fixture struct {
	correlator *correlate.Correlator
	mux        *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.New()
	graph := depgraph.Default()
	correlator := correlate.New(5*time.Minute, graph, st, correlate.NewMetrics(prometheus.NewRegistry()))

	provider := embedding.NewHashingProvider(embedding.DefaultDims)
	eng := engine.New(engine.Options{
		Cluster: clustering.Config{Eps: 0.6, MinPoints: 3},
	}, st, correlator, provider, advisor.New(), engine.NewMetrics(prometheus.NewRegistry()))

	classifier := severity.NewClassifier(nil)
	h := New(st, normalize.NewNormalizer(classifier), correlator, eng)
	mux := http.NewServeMux()
	h.Register(mux)

	return &fixture{correlator: correlator, mux: mux}
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func trackerRecord(typ, service string, ts time.Time) normalize.Record {
	payload := fmt.Sprintf(`{"type":%q,"value":"boom","timestamp":%q,"tags":{"service":%q}}`,
		typ, ts.Format(time.RFC3339), service)
	return normalize.Record{Source: models.SourceErrorTracker, Payload: json.RawMessage(payload)}
}

func TestIngestAndListIncidents(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	records := []normalize.Record{
		trackerRecord("PoolTimeoutError", "order-service", base),
		trackerRecord("PoolTimeoutError", "order-service", base.Add(30*time.Second)),
		{Source: models.SourceErrorTracker, Payload: json.RawMessage(`{"value":"no type"}`)},
	}

	rec := f.do(t, http.MethodPost, "/v1/ingest?tenant=acme", map[string]interface{}{"records": records})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Accepted int `json:"accepted"`
		Dropped  int `json:"dropped"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Dropped)

	f.correlator.Flush()

	rec = f.do(t, http.MethodGet, "/v1/incidents?tenant=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Incidents  []models.Summary          `json:"incidents"`
		Pagination models.PaginationResponse `json:"pagination"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Incidents, 1)
	assert.Equal(t, 2, list.Incidents[0].EventCount)
	assert.Equal(t, models.IncidentClosed, list.Incidents[0].State)
	assert.Contains(t, list.Incidents[0].AffectedServices, "order-service")
	assert.False(t, list.Pagination.HasMore)
}

func TestGetIncidentNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/incidents/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvidencePaging(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	records := make([]normalize.Record, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, trackerRecord("TimeoutError", "user-service", base.Add(time.Duration(i)*time.Second)))
	}
	rec := f.do(t, http.MethodPost, "/v1/ingest?tenant=acme", map[string]interface{}{"records": records})
	require.Equal(t, http.StatusAccepted, rec.Code)
	f.correlator.Flush()

	rec = f.do(t, http.MethodGet, "/v1/incidents?tenant=acme", nil)
	var list struct {
		Incidents []models.Summary `json:"incidents"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Incidents, 1)
	id := list.Incidents[0].ID

	seen := 0
	cursor := ""
	for page := 0; page < 4; page++ {
		target := "/v1/incidents/" + id + "/evidence?pageSize=2"
		if cursor != "" {
			target += "&cursor=" + cursor
		}
		rec = f.do(t, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Events     []models.Event            `json:"events"`
			Pagination models.PaginationResponse `json:"pagination"`
		}
		decode(t, rec, &resp)
		seen += len(resp.Events)
		if !resp.Pagination.HasMore {
			break
		}
		cursor = resp.Pagination.NextCursor
	}
	assert.Equal(t, 5, seen)

	rec = f.do(t, http.MethodGet, "/v1/incidents/missing/evidence", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClustersWithoutRunIsWellFormed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/clusters?tenant=ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Clusters []models.Cluster    `json:"clusters"`
		Noise    []models.NoisePoint `json:"noise"`
	}
	decode(t, rec, &resp)
	assert.Empty(t, resp.Clusters)
	assert.Empty(t, resp.Noise)
}

func TestTriggerRunAndReadClusters(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var records []normalize.Record
	for i := 0; i < 6; i++ {
		records = append(records, trackerRecord("PoolTimeoutError", "order-service", base.Add(time.Duration(i)*time.Hour)))
	}
	rec := f.do(t, http.MethodPost, "/v1/ingest?tenant=acme", map[string]interface{}{"records": records})
	require.Equal(t, http.StatusAccepted, rec.Code)
	f.correlator.Flush()

	rec = f.do(t, http.MethodPost, "/v1/runs?tenant=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var run models.ClusteringRun
	decode(t, rec, &run)
	assert.Equal(t, 6, run.NumPoints)
	require.NotEmpty(t, run.Clusters)

	rec = f.do(t, http.MethodGet, "/v1/clusters?tenant=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var clusters struct {
		Clusters    []models.Cluster `json:"clusters"`
		LastUpdated string           `json:"lastUpdated"`
	}
	decode(t, rec, &clusters)
	require.NotEmpty(t, clusters.Clusters)
	assert.NotEmpty(t, clusters.LastUpdated)

	target := fmt.Sprintf("/v1/clusters/%d/solution?tenant=acme", clusters.Clusters[0].ID)
	rec = f.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sol models.Solution
	decode(t, rec, &sol)
	assert.NotEmpty(t, sol.RecommendedActions)

	rec = f.do(t, http.MethodGet, "/v1/clusters/999/solution?tenant=acme", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/clusters/abc/solution?tenant=acme", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolutionLookup(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/solutions?errorType=oomkilled&severity=P0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sol models.Solution
	decode(t, rec, &sol)
	assert.NotEmpty(t, sol.RecommendedActions)

	rec = f.do(t, http.MethodGet, "/v1/solutions", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepClosesIdleIncidents(t *testing.T) {
	f := newFixture(t)
	old := time.Now().UTC().Add(-time.Hour)

	rec := f.do(t, http.MethodPost, "/v1/ingest?tenant=acme", map[string]interface{}{
		"records": []normalize.Record{trackerRecord("TimeoutError", "user-service", old)},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Closed int `json:"closed"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Closed)
}
