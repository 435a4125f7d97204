// Package correlate groups normalized events into incidents using temporal
// windows and service-dependency affinity. The open working set is the only
// shared mutable state in the pipeline; a single mutex serializes appends.
package correlate

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moolen/cascade/internal/depgraph"
	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/models"
)

var logger = logging.GetLogger("correlate")

// Sink receives incidents as they close. Closed incidents are immutable.
type Sink interface {
	Publish(incident models.Incident)
}

// Correlator assigns incoming events to open incidents or starts new ones.
// Incidents close lazily when no event has been appended for longer than
// the correlation window, or eagerly via Sweep.
type Correlator struct {
	mu      sync.Mutex
	window  time.Duration
	graph   *depgraph.Graph
	sink    Sink
	metrics *Metrics

	// open working set: tenant -> (service+signature key) -> incident
	open map[string]map[string]*models.Incident

	// causal edges per correlation id, keyed by incident id.
	// Tracked to keep cascades acyclic: an edge that would close a cycle
	// downgrades the link to co-incident.
	causal map[string]map[string]map[string]struct{}
}

// New creates a correlator. The sink receives incidents when they close.
func New(window time.Duration, graph *depgraph.Graph, sink Sink, metrics *Metrics) *Correlator {
	return &Correlator{
		window:  window,
		graph:   graph,
		sink:    sink,
		metrics: metrics,
		open:    make(map[string]map[string]*models.Incident),
		causal:  make(map[string]map[string]map[string]struct{}),
	}
}

// Window returns the configured correlation window
func (c *Correlator) Window() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// SetWindow updates the correlation window. Already-open incidents are
// judged against the new window on their next event or sweep.
func (c *Correlator) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = window
}

// Append routes one event into the open working set and returns the id of
// the incident it landed in. Expired incidents for the event's tenant are
// closed as a side effect.
func (c *Correlator) Append(ev models.Event) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	arena := c.open[ev.Tenant]
	if arena == nil {
		arena = make(map[string]*models.Incident)
		c.open[ev.Tenant] = arena
	}

	c.closeExpiredLocked(ev.Tenant, ev.Timestamp)

	candidates := c.matchLocked(arena, ev)

	var incident *models.Incident
	if len(candidates) == 0 {
		incident = c.openIncidentLocked(arena, ev)
	} else {
		// Most recent end_time wins; runner-ups are folded into the winner
		// so one real problem does not fragment into several incidents.
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].EndTime.After(candidates[j].EndTime)
		})
		incident = candidates[0]
		for _, runnerUp := range candidates[1:] {
			c.mergeLocked(arena, incident, runnerUp)
		}
		c.appendLocked(incident, ev)
	}

	c.linkCascadesLocked(ev.Tenant, incident, ev.Timestamp)

	if c.metrics != nil {
		c.metrics.EventsAppended.WithLabelValues(string(ev.Source)).Inc()
	}
	return incident.ID
}

// matchLocked finds open incidents whose end_time lies within the window of
// the event and whose affected services intersect the event's service or
// are linked to it in the dependency graph. Events without a service match
// on signature only.
func (c *Correlator) matchLocked(arena map[string]*models.Incident, ev models.Event) []*models.Incident {
	var out []*models.Incident
	for _, inc := range arena {
		if !c.withinWindow(inc.EndTime, ev.Timestamp) {
			continue
		}
		if ev.Service == "" {
			if inc.IncidentType == ev.Signature {
				out = append(out, inc)
			}
			continue
		}
		if inc.HasService(ev.Service) || c.serviceLinked(inc, ev.Service) {
			out = append(out, inc)
		}
	}
	return out
}

func (c *Correlator) serviceLinked(inc *models.Incident, service string) bool {
	for _, svc := range inc.AffectedServices {
		if c.graph.Linked(svc, service) {
			return true
		}
	}
	return false
}

func (c *Correlator) withinWindow(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= c.window
}

func (c *Correlator) openIncidentLocked(arena map[string]*models.Incident, ev models.Event) *models.Incident {
	inc := &models.Incident{
		ID:            uuid.NewString(),
		Tenant:        ev.Tenant,
		CorrelationID: uuid.NewString(),
		StartTime:     ev.Timestamp,
		EndTime:       ev.Timestamp,
		Severity:      ev.SeverityHint,
		IncidentType:  ev.Signature,
		State:         models.IncidentOpen,
		Events:        []models.Event{ev},
	}
	inc.AddService(ev.Service)
	key := arenaKey(ev.Service, ev.Signature)
	if _, taken := arena[key]; taken {
		// same key can be live when events arrive far out of order
		key += "\x00" + inc.ID
	}
	arena[key] = inc

	if c.metrics != nil {
		c.metrics.IncidentsOpened.Inc()
		c.metrics.OpenIncidents.Inc()
	}
	logger.DebugWithFields("opened incident",
		logging.Field("incident_id", inc.ID),
		logging.Field("service", ev.Service),
		logging.Field("signature", ev.Signature))
	return inc
}

// appendLocked adds an event to an open incident. Severity only escalates.
func (c *Correlator) appendLocked(inc *models.Incident, ev models.Event) {
	inc.Events = append(inc.Events, ev)
	if ev.Timestamp.After(inc.EndTime) {
		inc.EndTime = ev.Timestamp
	}
	if ev.Timestamp.Before(inc.StartTime) {
		inc.StartTime = ev.Timestamp
	}
	inc.AddService(ev.Service)
	inc.Severity = models.MostSevere(inc.Severity, ev.SeverityHint)
}

// mergeLocked folds a runner-up incident into the tie-break winner and
// removes it from the arena.
func (c *Correlator) mergeLocked(arena map[string]*models.Incident, winner, runnerUp *models.Incident) {
	winner.Events = append(winner.Events, runnerUp.Events...)
	for _, svc := range runnerUp.AffectedServices {
		winner.AddService(svc)
	}
	if runnerUp.StartTime.Before(winner.StartTime) {
		winner.StartTime = runnerUp.StartTime
	}
	if runnerUp.EndTime.After(winner.EndTime) {
		winner.EndTime = runnerUp.EndTime
	}
	winner.Severity = models.MostSevere(winner.Severity, runnerUp.Severity)

	for key, inc := range arena {
		if inc == runnerUp {
			delete(arena, key)
			break
		}
	}
	delete(c.causal, runnerUp.CorrelationID)

	if c.metrics != nil {
		c.metrics.IncidentsMerged.Inc()
		c.metrics.OpenIncidents.Dec()
	}
}

// linkCascadesLocked shares the correlation id of the touched incident with
// other open incidents in the window whose services are dependency-linked.
// Causal direction follows the graph: a failure in a dependency is the
// cause of a failure in its dependent. An edge that would close a cycle is
// not recorded; the incidents stay co-incident under the shared id.
func (c *Correlator) linkCascadesLocked(tenant string, inc *models.Incident, now time.Time) {
	for _, other := range c.open[tenant] {
		if other == inc || !c.withinWindow(other.EndTime, now) {
			continue
		}
		cause, effect, linked := c.causalPair(inc, other)
		if !linked {
			continue
		}

		if other.CorrelationID != inc.CorrelationID {
			c.adoptCorrelationLocked(tenant, inc, other)
			if c.metrics != nil {
				c.metrics.CascadeLinks.Inc()
			}
		}
		if cause != nil && effect != nil {
			c.addCausalEdgeLocked(inc.CorrelationID, cause.ID, effect.ID)
		}
	}
}

// causalPair decides link direction between two incidents. Returns nil
// cause/effect for co-incident links (cyclic topology or ambiguous
// direction) with linked=true.
func (c *Correlator) causalPair(a, b *models.Incident) (cause, effect *models.Incident, linked bool) {
	for _, asvc := range a.AffectedServices {
		for _, bsvc := range b.AffectedServices {
			if !c.graph.Linked(asvc, bsvc) {
				continue
			}
			if c.graph.InCycle(asvc, bsvc) {
				return nil, nil, true
			}
			// b depends on a's service: a is the upstream cause
			if c.graph.DependsOn(bsvc, asvc) {
				return a, b, true
			}
			return b, a, true
		}
	}
	return nil, nil, false
}

// adoptCorrelationLocked moves every incident under the newer correlation
// id onto the older one, so a whole cascade shares a single id.
func (c *Correlator) adoptCorrelationLocked(tenant string, a, b *models.Incident) {
	keep, drop := a, b
	if b.StartTime.Before(a.StartTime) {
		keep, drop = b, a
	}
	oldID := drop.CorrelationID
	for _, inc := range c.open[tenant] {
		if inc.CorrelationID == oldID {
			inc.CorrelationID = keep.CorrelationID
		}
	}
	// carry causal edges recorded under the dropped id
	if edges, ok := c.causal[oldID]; ok {
		target := c.causal[keep.CorrelationID]
		if target == nil {
			target = make(map[string]map[string]struct{})
			c.causal[keep.CorrelationID] = target
		}
		for from, tos := range edges {
			if target[from] == nil {
				target[from] = make(map[string]struct{})
			}
			for to := range tos {
				target[from][to] = struct{}{}
			}
		}
		delete(c.causal, oldID)
	}
}

func (c *Correlator) addCausalEdgeLocked(correlationID, causeID, effectID string) {
	edges := c.causal[correlationID]
	if edges == nil {
		edges = make(map[string]map[string]struct{})
		c.causal[correlationID] = edges
	}
	if c.reaches(edges, effectID, causeID) {
		// would close a cycle; leave as co-incident
		return
	}
	if edges[causeID] == nil {
		edges[causeID] = make(map[string]struct{})
	}
	edges[causeID][effectID] = struct{}{}
}

func (c *Correlator) reaches(edges map[string]map[string]struct{}, from, to string) bool {
	if from == to {
		return true
	}
	visited := make(map[string]struct{})
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		for next := range edges[cur] {
			if next == to {
				return true
			}
			stack = append(stack, next)
		}
	}
	return false
}

// closeExpiredLocked closes incidents whose window has elapsed relative to
// the given instant
func (c *Correlator) closeExpiredLocked(tenant string, now time.Time) {
	arena := c.open[tenant]
	for key, inc := range arena {
		if now.Sub(inc.EndTime) > c.window {
			c.closeLocked(arena, key, inc)
		}
	}
}

// closeLocked finalizes an incident and hands it to the sink
func (c *Correlator) closeLocked(arena map[string]*models.Incident, key string, inc *models.Incident) {
	delete(arena, key)
	delete(c.causal, inc.CorrelationID)

	inc.State = models.IncidentClosed
	sort.Slice(inc.Events, func(i, j int) bool {
		return inc.Events[i].Timestamp.Before(inc.Events[j].Timestamp)
	})

	if c.metrics != nil {
		c.metrics.IncidentsClosed.Inc()
		c.metrics.OpenIncidents.Dec()
	}
	logger.DebugWithFields("closed incident",
		logging.Field("incident_id", inc.ID),
		logging.Field("events", len(inc.Events)),
		logging.Field("severity", inc.Severity.String()))

	if c.sink != nil {
		c.sink.Publish(*inc)
	}
}

// Sweep closes all incidents across tenants that have been idle longer
// than the window, relative to now. Returns the number closed.
func (c *Correlator) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	closed := 0
	for _, arena := range c.open {
		for key, inc := range arena {
			if now.Sub(inc.EndTime) > c.window {
				c.closeLocked(arena, key, inc)
				closed++
			}
		}
	}
	return closed
}

// Flush closes every open incident regardless of idle time. Used by replay
// and shutdown paths.
func (c *Correlator) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	closed := 0
	for _, arena := range c.open {
		for key, inc := range arena {
			c.closeLocked(arena, key, inc)
			closed++
		}
	}
	return closed
}

// OpenSnapshot returns deep-enough copies of the tenant's open incidents
// for read-only use. Member event slices are copied; events themselves are
// immutable.
func (c *Correlator) OpenSnapshot(tenant string) []models.Incident {
	c.mu.Lock()
	defer c.mu.Unlock()

	arena := c.open[tenant]
	out := make([]models.Incident, 0, len(arena))
	for _, inc := range arena {
		cp := *inc
		cp.Events = append([]models.Event(nil), inc.Events...)
		cp.AffectedServices = append([]string(nil), inc.AffectedServices...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// OpenCount returns the number of open incidents for a tenant
func (c *Correlator) OpenCount(tenant string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.open[tenant])
}

func arenaKey(service, signature string) string {
	return service + "\x00" + signature
}
