// Package engine orchestrates the clustering pipeline: snapshot closed
// incidents, embed their evidence text, cluster the vectors, label the
// clusters and publish the run atomically. Runs never block ingestion and
// a failed or timed-out run leaves the previously published run intact.
package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/moolen/cascade/internal/advisor"
	"github.com/moolen/cascade/internal/clustering"
	"github.com/moolen/cascade/internal/correlate"
	"github.com/moolen/cascade/internal/embedding"
	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/store"
)

var logger = logging.GetLogger("engine")

const (
	// DefaultRunTimeout bounds one clustering run
	DefaultRunTimeout = 30 * time.Second

	// DefaultEmbedWorkers bounds concurrent embedding batches
	DefaultEmbedWorkers = 4

	// embedBatchSize is the number of incidents per embedding batch
	embedBatchSize = 32
)

// Options configures the pipeline
type Options struct {
	// Cluster holds the density parameters for clustering runs
	Cluster clustering.Config

	// MaxMemberTexts bounds member texts per incident embedding input
	MaxMemberTexts int

	// MaxTextLen bounds the embedding input length in bytes
	MaxTextLen int

	// IncludeOpen adds a snapshot of still-open incidents to runs
	IncludeOpen bool

	// RunTimeout bounds one clustering run end to end
	RunTimeout time.Duration

	// EmbedWorkers bounds concurrent embedding batches
	EmbedWorkers int
}

func (o Options) withDefaults() Options {
	if o.RunTimeout <= 0 {
		o.RunTimeout = DefaultRunTimeout
	}
	if o.EmbedWorkers <= 0 {
		o.EmbedWorkers = DefaultEmbedWorkers
	}
	return o
}

// Engine runs the clustering pipeline and serves published results
type Engine struct {
	store      *store.Store
	correlator *correlate.Correlator
	provider   embedding.Provider
	advisor    *advisor.Advisor
	metrics    *Metrics

	mu        sync.RWMutex
	opts      Options
	published map[string]*models.ClusteringRun
}

// New creates a pipeline engine
func New(opts Options, st *store.Store, correlator *correlate.Correlator, provider embedding.Provider, adv *advisor.Advisor, metrics *Metrics) *Engine {
	return &Engine{
		opts:       opts.withDefaults(),
		store:      st,
		correlator: correlator,
		provider:   provider,
		advisor:    adv,
		metrics:    metrics,
		published:  make(map[string]*models.ClusteringRun),
	}
}

// Run executes one clustering run for a tenant and publishes the result.
// On timeout the previously published run stays authoritative and a
// ClusteringTimeoutError is returned. A zero-incident snapshot publishes
// an empty, well-formed run.
func (e *Engine) Run(ctx context.Context, tenant string) (*models.ClusteringRun, error) {
	opts := e.options()

	ctx, cancel := context.WithTimeout(ctx, opts.RunTimeout)
	defer cancel()

	ctx, span := otel.Tracer("cascade/engine").Start(ctx, "clustering_run")
	span.SetAttributes(attribute.String("tenant", tenant))
	defer span.End()

	started := time.Now()
	run, err := e.run(ctx, tenant, opts)
	if e.metrics != nil {
		e.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		outcome := "error"
		if ctx.Err() != nil {
			outcome = "timeout"
			err = &models.ClusteringTimeoutError{Tenant: tenant}
		}
		if e.metrics != nil {
			e.metrics.RunsTotal.WithLabelValues(outcome).Inc()
		}
		logger.ErrorWithErr("clustering run failed", err, "tenant=%s", tenant)
		return nil, err
	}

	e.publish(tenant, run)
	if e.metrics != nil {
		e.metrics.RunsTotal.WithLabelValues("ok").Inc()
		e.metrics.LastRunPoints.Set(float64(run.NumPoints))
		e.metrics.LastRunClusters.Set(float64(run.NumClusters))
		e.metrics.LastRunNoise.Set(float64(run.NumNoise))
	}
	logger.InfoWithFields("published clustering run",
		logging.Field("tenant", tenant),
		logging.Field("points", run.NumPoints),
		logging.Field("clusters", run.NumClusters),
		logging.Field("noise", run.NumNoise),
		logging.Field("unembeddable", run.NumUnembeddable))

	result := *run
	return &result, nil
}

func (e *Engine) run(ctx context.Context, tenant string, opts Options) (*models.ClusteringRun, error) {
	snapshot := e.store.Snapshot(tenant)
	if opts.IncludeOpen && e.correlator != nil {
		snapshot = append(snapshot, e.correlator.OpenSnapshot(tenant)...)
	}

	embeddable, texts, unembeddable := e.partitionEvidence(snapshot, opts)

	vectors, err := e.embedAll(ctx, texts, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assignment := clustering.Run(vectors, opts.Cluster)
	clusters, noise := buildClusters(assignment, embeddable)

	run := &models.ClusteringRun{
		Tenant:          tenant,
		NumPoints:       len(embeddable),
		NumClusters:     assignment.NumClusters,
		NumNoise:        assignment.NumNoise(),
		NumUnembeddable: unembeddable,
		SilhouetteScore: clustering.Silhouette(vectors, assignment.Labels),
		Clusters:        clusters,
		Noise:           noise,
		CompletedAt:     time.Now().UTC(),
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return run, nil
}

// partitionEvidence splits the snapshot into embeddable incidents with
// their bounded evidence texts, counting incidents without usable text
func (e *Engine) partitionEvidence(snapshot []models.Incident, opts Options) ([]models.Incident, []string, int) {
	embeddable := make([]models.Incident, 0, len(snapshot))
	texts := make([]string, 0, len(snapshot))
	unembeddable := 0

	for _, inc := range snapshot {
		text := embedding.IncidentText(&inc, opts.MaxMemberTexts, opts.MaxTextLen)
		if text == "" {
			unembeddable++
			if e.metrics != nil {
				e.metrics.UnembeddableTotal.Inc()
			}
			logger.DebugWithFields("incident excluded from clustering",
				logging.Field("incident_id", inc.ID),
				logging.Field("reason", (&models.EmbeddingUnavailableError{IncidentID: inc.ID}).Error()))
			continue
		}
		embeddable = append(embeddable, inc)
		texts = append(texts, text)
	}
	return embeddable, texts, unembeddable
}

// embedAll vectorizes the texts in parallel batches with bounded
// concurrency. The provider is pure, so batches share no state.
func (e *Engine) embedAll(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.EmbedWorkers)

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := e.provider.Embed(ctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// options returns a consistent copy of the current options
func (e *Engine) options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// UpdateOptions swaps the pipeline options. Applies to the next run;
// a run already in flight keeps the options it started with.
func (e *Engine) UpdateOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts.withDefaults()
}

// publish swaps in the new run atomically
func (e *Engine) publish(tenant string, run *models.ClusteringRun) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published[tenant] = run
}

// Published returns a copy of the last published run for a tenant.
// A tenant with no published run returns ok=false; callers translate
// that into an empty, well-formed response.
func (e *Engine) Published(tenant string) (models.ClusteringRun, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	run, ok := e.published[tenant]
	if !ok {
		return models.ClusteringRun{}, false
	}
	return *run, true
}

// Cluster returns a cluster from the last published run by id
func (e *Engine) Cluster(tenant string, clusterID int) (models.Cluster, bool) {
	run, ok := e.Published(tenant)
	if !ok {
		return models.Cluster{}, false
	}
	for _, cluster := range run.Clusters {
		if cluster.ID == clusterID {
			return cluster, true
		}
	}
	return models.Cluster{}, false
}

// Solution resolves the remediation for a cluster in the last published run
func (e *Engine) Solution(tenant string, clusterID int) (models.Solution, bool) {
	cluster, ok := e.Cluster(tenant, clusterID)
	if !ok {
		return models.Solution{}, false
	}
	return e.advisor.RecommendForCluster(&cluster), true
}

// Recommend resolves a remediation by error type and severity
func (e *Engine) Recommend(errorType string, severity models.Tier) models.Solution {
	return e.advisor.Recommend(errorType, severity)
}
