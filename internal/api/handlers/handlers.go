// Package handlers implements the REST surface over the correlation and
// clustering engine. All timestamps at this boundary are UTC ISO-8601 and
// all identifiers are opaque strings.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/moolen/cascade/internal/api/response"
	"github.com/moolen/cascade/internal/correlate"
	"github.com/moolen/cascade/internal/engine"
	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/normalize"
	"github.com/moolen/cascade/internal/store"
)

var logger = logging.GetLogger("api")

// Handlers serves the REST endpoints over the pipeline's read and ingest
// interfaces
type Handlers struct {
	store      *store.Store
	normalizer *normalize.Normalizer
	correlator *correlate.Correlator
	engine     *engine.Engine
}

// New creates the REST handlers
func New(st *store.Store, normalizer *normalize.Normalizer, correlator *correlate.Correlator, eng *engine.Engine) *Handlers {
	return &Handlers{
		store:      st,
		normalizer: normalizer,
		correlator: correlator,
		engine:     eng,
	}
}

// Register attaches all REST routes to the mux
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/incidents", h.ListIncidents)
	mux.HandleFunc("GET /v1/incidents/{id}", h.GetIncident)
	mux.HandleFunc("GET /v1/incidents/{id}/evidence", h.GetEvidence)
	mux.HandleFunc("GET /v1/clusters", h.ListClusters)
	mux.HandleFunc("GET /v1/clusters/{id}/solution", h.GetClusterSolution)
	mux.HandleFunc("GET /v1/solutions", h.GetSolution)
	mux.HandleFunc("POST /v1/ingest", h.Ingest)
	mux.HandleFunc("POST /v1/runs", h.TriggerRun)
	mux.HandleFunc("POST /v1/sweep", h.Sweep)
}

// pageRequest extracts pagination parameters from the query string
func pageRequest(r *http.Request) *models.PaginationRequest {
	page := &models.PaginationRequest{Cursor: r.URL.Query().Get("cursor")}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			page.PageSize = size
		}
	}
	return page
}

// ListIncidents handles GET /v1/incidents
func (h *Handlers) ListIncidents(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")
	correlationID := r.URL.Query().Get("correlationId")

	summaries, page, err := h.store.List(tenant, correlationID, pageRequest(r))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_cursor", err.Error())
		return
	}
	if summaries == nil {
		summaries = []models.Summary{}
	}

	_ = response.WriteSuccess(w, map[string]interface{}{
		"incidents":  summaries,
		"pagination": page,
	})
}

// GetIncident handles GET /v1/incidents/{id}
func (h *Handlers) GetIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inc, ok := h.store.Get(id)
	if !ok {
		response.WriteError(w, http.StatusNotFound, "not_found", "no incident with id "+id)
		return
	}
	_ = response.WriteSuccess(w, inc)
}

// GetEvidence handles GET /v1/incidents/{id}/evidence
func (h *Handlers) GetEvidence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	events, page, err := h.store.Evidence(id, pageRequest(r))
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			response.WriteError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		response.WriteError(w, http.StatusBadRequest, "invalid_cursor", err.Error())
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	_ = response.WriteSuccess(w, map[string]interface{}{
		"incidentId": id,
		"events":     events,
		"pagination": page,
	})
}

// ListClusters handles GET /v1/clusters. A tenant without a published run
// gets an empty, well-formed result rather than an error.
func (h *Handlers) ListClusters(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")

	run, ok := h.engine.Published(tenant)
	if !ok {
		_ = response.WriteSuccess(w, map[string]interface{}{
			"run":      models.ClusteringRun{Tenant: tenant},
			"clusters": []models.Cluster{},
			"noise":    []models.NoisePoint{},
		})
		return
	}

	clusters := run.Clusters
	if clusters == nil {
		clusters = []models.Cluster{}
	}
	noise := run.Noise
	if noise == nil {
		noise = []models.NoisePoint{}
	}

	_ = response.WriteSuccess(w, map[string]interface{}{
		"run":         run,
		"clusters":    clusters,
		"noise":       noise,
		"lastUpdated": run.CompletedAt.Format(time.RFC3339),
	})
}

// GetClusterSolution handles GET /v1/clusters/{id}/solution
func (h *Handlers) GetClusterSolution(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")

	clusterID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_cluster_id", "cluster id must be an integer")
		return
	}

	sol, ok := h.engine.Solution(tenant, clusterID)
	if !ok {
		response.WriteError(w, http.StatusNotFound, "not_found", "no such cluster in the last published run")
		return
	}
	_ = response.WriteSuccess(w, sol)
}

// GetSolution handles GET /v1/solutions?errorType=&severity=
func (h *Handlers) GetSolution(w http.ResponseWriter, r *http.Request) {
	errorType := r.URL.Query().Get("errorType")
	if errorType == "" {
		response.WriteError(w, http.StatusBadRequest, "missing_error_type", "errorType query parameter is required")
		return
	}
	severity := models.ParseTier(r.URL.Query().Get("severity"))

	_ = response.WriteSuccess(w, h.engine.Recommend(errorType, severity))
}

// ingestRequest is the POST /v1/ingest body
type ingestRequest struct {
	Records []normalize.Record `json:"records"`
}

// Ingest handles POST /v1/ingest. Malformed records are dropped and
// counted; they never abort the batch.
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	for i := range req.Records {
		if req.Records[i].Tenant == "" {
			req.Records[i].Tenant = tenant
		}
	}

	events, dropped := h.normalizer.NormalizeBatch(req.Records)
	for _, ev := range events {
		h.correlator.Append(ev)
	}

	logger.InfoWithFields("ingested batch",
		logging.Field("tenant", tenant),
		logging.Field("accepted", len(events)),
		logging.Field("dropped", dropped))

	_ = response.WriteAccepted(w, map[string]interface{}{
		"accepted": len(events),
		"dropped":  dropped,
	})
}

// TriggerRun handles POST /v1/runs. A timed-out run returns 503 and the
// previously published run stays authoritative.
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("tenant")

	run, err := h.engine.Run(r.Context(), tenant)
	if err != nil {
		var timeout *models.ClusteringTimeoutError
		if errors.As(err, &timeout) {
			response.WriteError(w, http.StatusServiceUnavailable, "run_timeout", err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, "run_failed", err.Error())
		return
	}
	_ = response.WriteSuccess(w, run)
}

// Sweep handles POST /v1/sweep: eagerly closes idle incidents
func (h *Handlers) Sweep(w http.ResponseWriter, r *http.Request) {
	closed := h.correlator.Sweep(time.Now().UTC())
	_ = response.WriteSuccess(w, map[string]interface{}{"closed": closed})
}
