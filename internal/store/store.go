// Package store holds closed incidents. Incidents arrive from the
// correlator as they close and are immutable from then on; the store is
// append-only per tenant.
package store

import (
	"sync"

	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/models"
)

var logger = logging.GetLogger("store")

// Store is the append-only closed incident store, partitioned by tenant
type Store struct {
	mu       sync.RWMutex
	byTenant map[string][]*models.Incident
	byID     map[string]*models.Incident
}

// New creates an empty store
func New() *Store {
	return &Store{
		byTenant: make(map[string][]*models.Incident),
		byID:     make(map[string]*models.Incident),
	}
}

// Publish appends a closed incident. Implements the correlator sink.
func (s *Store) Publish(inc models.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := inc
	s.byTenant[inc.Tenant] = append(s.byTenant[inc.Tenant], &cp)
	s.byID[inc.ID] = &cp

	logger.DebugWithFields("stored incident",
		logging.Field("incident_id", inc.ID),
		logging.Field("tenant", inc.Tenant),
		logging.Field("events", len(inc.Events)))
}

// Get returns a copy of the incident with the given id
func (s *Store) Get(id string) (models.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.byID[id]
	if !ok {
		return models.Incident{}, false
	}
	return *inc, true
}

// List returns incident summaries for a tenant, newest first, optionally
// filtered by correlation id, with cursor-based paging.
func (s *Store) List(tenant, correlationID string, page *models.PaginationRequest) ([]models.Summary, models.PaginationResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	incidents := s.byTenant[tenant]
	var filtered []*models.Incident
	for i := len(incidents) - 1; i >= 0; i-- {
		if correlationID != "" && incidents[i].CorrelationID != correlationID {
			continue
		}
		filtered = append(filtered, incidents[i])
	}

	pageSize := page.GetPageSize()
	offset := 0
	if page != nil {
		cursor, err := models.DecodeEvidenceCursor(page.Cursor)
		if err != nil {
			return nil, models.PaginationResponse{}, err
		}
		if cursor != nil {
			offset = cursor.Offset
		}
	}
	if offset > len(filtered) {
		offset = len(filtered)
	}

	end := offset + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	out := make([]models.Summary, 0, end-offset)
	for _, inc := range filtered[offset:end] {
		out = append(out, inc.Summarize())
	}

	resp := models.PaginationResponse{PageSize: pageSize, HasMore: end < len(filtered)}
	if resp.HasMore {
		resp.NextCursor = (&models.EvidenceCursor{Offset: end}).Encode()
	}
	return out, resp, nil
}

// Evidence returns a page of the incident's member events in time order
func (s *Store) Evidence(id string, page *models.PaginationRequest) ([]models.Event, models.PaginationResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.byID[id]
	if !ok {
		return nil, models.PaginationResponse{}, models.NewValidationError("unknown incident %q", id)
	}

	pageSize := page.GetPageSize()
	offset := 0
	if page != nil {
		cursor, err := models.DecodeEvidenceCursor(page.Cursor)
		if err != nil {
			return nil, models.PaginationResponse{}, err
		}
		if cursor != nil {
			offset = cursor.Offset
		}
	}
	if offset > len(inc.Events) {
		offset = len(inc.Events)
	}

	end := offset + pageSize
	if end > len(inc.Events) {
		end = len(inc.Events)
	}

	events := append([]models.Event(nil), inc.Events[offset:end]...)
	resp := models.PaginationResponse{PageSize: pageSize, HasMore: end < len(inc.Events)}
	if resp.HasMore {
		resp.NextCursor = (&models.EvidenceCursor{Offset: end}).Encode()
	}
	return events, resp, nil
}

// Snapshot returns copies of the tenant's closed incidents in append order.
// Clustering runs read from this snapshot without blocking ingestion.
func (s *Store) Snapshot(tenant string) []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	incidents := s.byTenant[tenant]
	out := make([]models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		out = append(out, *inc)
	}
	return out
}

// Count returns the number of closed incidents for a tenant
func (s *Store) Count(tenant string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTenant[tenant])
}

// Tenants returns all tenants with at least one closed incident
func (s *Store) Tenants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byTenant))
	for tenant := range s.byTenant {
		out = append(out, tenant)
	}
	return out
}
