package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moolen/cascade/internal/advisor"
	"github.com/moolen/cascade/internal/api/response"
	"github.com/moolen/cascade/internal/config"
	"github.com/moolen/cascade/internal/correlate"
	"github.com/moolen/cascade/internal/depgraph"
	"github.com/moolen/cascade/internal/embedding"
	"github.com/moolen/cascade/internal/engine"
	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/normalize"
	"github.com/moolen/cascade/internal/severity"
	"github.com/moolen/cascade/internal/store"
)

var (
	replayFile   string
	replayTenant string
	replayPolicy string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded telemetry through the pipeline",
	Long: `Replay a JSONL file of raw telemetry records through normalization,
correlation and one clustering run, then print the run summary. Useful for
tuning policy parameters against captured incidents.`,
	Run: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFile, "file", "", "Path to JSONL file of telemetry records (required)")
	replayCmd.Flags().StringVar(&replayTenant, "tenant", "", "Tenant assigned to records without one")
	replayCmd.Flags().StringVar(&replayPolicy, "policy", "", "Optional path to an engine policy file")
	_ = replayCmd.MarkFlagRequired("file")
}

func runReplay(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevel); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("replay")

	policy := config.DefaultPolicy()
	if replayPolicy != "" {
		var err error
		policy, err = config.LoadPolicyFile(replayPolicy)
		HandleError(err, "Policy error")
	}

	file, err := os.Open(replayFile)
	HandleError(err, "Failed to open replay file")
	defer file.Close()

	registry := prometheus.NewRegistry()
	classifier := severity.NewClassifier(policy.SeverityOverrides)
	normalizer := normalize.NewNormalizer(classifier)

	graph := depgraph.Default()
	if len(policy.Dependencies) > 0 {
		graph = depgraph.New(policy.Dependencies)
	}

	st := store.New()
	correlator := correlate.New(policy.WindowDuration(), graph, st, correlate.NewMetrics(registry))

	provider, err := embedding.NewCachedProvider(
		embedding.NewHashingProvider(policy.Embedding.Dims),
		policy.Embedding.CacheSize,
	)
	HandleError(err, "Embedding provider error")

	eng := engine.New(engineOptionsFromPolicy(policy), st, correlator, provider, advisor.New(), engine.NewMetrics(registry))

	accepted, dropped := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec normalize.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			dropped++
			continue
		}
		if rec.Tenant == "" {
			rec.Tenant = replayTenant
		}

		ev, err := normalizer.Normalize(rec)
		if err != nil {
			dropped++
			continue
		}
		correlator.Append(*ev)
		accepted++
	}
	HandleError(scanner.Err(), "Failed to read replay file")

	closed := correlator.Flush()
	logger.Info("Replayed %d events (%d dropped), %d incidents", accepted, dropped, closed)

	tenants := st.Tenants()
	if len(tenants) == 0 {
		tenants = []string{replayTenant}
	}

	runs := make([]*models.ClusteringRun, 0, len(tenants))
	solutions := make([]models.Solution, 0)
	for _, tenant := range tenants {
		run, err := eng.Run(context.Background(), tenant)
		HandleError(err, "Clustering run failed")
		runs = append(runs, run)
		solutions = append(solutions, replaySolutions(eng, run)...)
	}

	summary := map[string]interface{}{
		"eventsAccepted": accepted,
		"eventsDropped":  dropped,
		"incidents":      closed,
		"runs":           runs,
		"solutions":      solutions,
	}
	HandleError(response.WriteJSON(os.Stdout, summary), "Failed to write summary")
}

// replaySolutions resolves one remediation per cluster in the run
func replaySolutions(eng *engine.Engine, run *models.ClusteringRun) []models.Solution {
	solutions := make([]models.Solution, 0, len(run.Clusters))
	for _, cluster := range run.Clusters {
		sol := eng.Recommend(cluster.ErrorType, cluster.Severity)
		sol.ClusterID = &cluster.ID
		solutions = append(solutions, sol)
	}
	return solutions
}
