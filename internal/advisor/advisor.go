// Package advisor maps (error type, severity) to ordered remediation
// steps. Lookups always resolve: unknown error types fall back to a
// generic action set for the severity tier, so every cluster stays
// actionable. The advisor is a pure lookup and mutates no pipeline state.
package advisor

import (
	"strings"

	"github.com/moolen/cascade/internal/models"
)

// runbooks maps normalized error types to ordered remediation steps
var runbooks = map[string][]string{
	"oomkilled": {
		"Check container memory limits against recent usage and raise the limit or request",
		"Inspect the workload for memory leaks using a heap profile from the last restart",
		"Review recent deploys for changes that increased memory footprint",
		"Consider horizontal scaling if the working set legitimately grew",
	},
	"crashloopbackoff": {
		"Read the last container logs and the termination message for the crash cause",
		"Verify required config, secrets and environment variables are mounted",
		"Roll back the most recent deploy if the crash started with it",
		"Check liveness probe settings for overly aggressive restarts",
	},
	"imagepullbackoff": {
		"Verify the image tag exists in the registry",
		"Check image pull secrets and registry credentials",
		"Confirm the node can reach the registry over the network",
	},
	"nodenotready": {
		"Check node resource pressure (disk, memory, PID) and kubelet health",
		"Cordon the node and drain workloads if it stays unhealthy",
		"Inspect cloud provider status for the underlying instance",
	},
	"pooltimeouterror": {
		"Inspect database connection pool saturation and raise the pool size if headroom exists",
		"Look for slow queries holding connections beyond their budget",
		"Check for connection leaks in recently deployed code paths",
		"Verify the database itself is not degraded or failing over",
	},
	"databaseconnections": {
		"Check database connection count against the configured maximum",
		"Identify clients opening excess connections and restart or fix them",
		"Raise max connections only after ruling out a connection leak",
	},
	"connectionerror": {
		"Verify the target service is up and its endpoints resolve",
		"Check network policies and security groups between caller and callee",
		"Inspect recent infrastructure changes affecting routing or DNS",
	},
	"high_error_rate": {
		"Identify the dominant failing endpoint and status code in the error breakdown",
		"Roll back the most recent deploy touching the affected service",
		"Check downstream dependencies for correlated failures",
		"Enable request sampling to capture failing request payloads",
	},
	"connection_pool_exhaustion": {
		"Raise the pool ceiling temporarily to restore service",
		"Find and fix the code path leaking connections",
		"Add pool saturation alerts below the hard limit",
	},
	"cpu_spike": {
		"Profile the service to find the hot path behind the spike",
		"Check for retry storms or traffic shifts amplifying load",
		"Scale out while the root cause is investigated",
	},
	"memory_spike": {
		"Capture a heap profile and compare against a pre-spike baseline",
		"Check for unbounded caches or queues in the affected service",
		"Restart the instance to restore headroom while investigating",
	},
	"slow_response": {
		"Break latency down by dependency to locate the slow hop",
		"Check database query plans for regressions",
		"Verify connection pools are not queueing under load",
	},
	"timeouterror": {
		"Identify which downstream call exceeds its deadline",
		"Compare configured timeouts against observed dependency latency",
		"Add or tune retries with backoff where the operation is idempotent",
	},
	"httpcode_target_5xx_count": {
		"Correlate the 5xx spike with deploys and config changes",
		"Inspect application logs on the targets returning errors",
		"Shift traffic away from unhealthy targets if the balancer allows it",
	},
	"cpuutilization": {
		"Confirm whether the CPU saturation tracks a traffic increase",
		"Scale the service out or up to restore headroom",
		"Profile for regressions if load did not change",
	},
}

// fallbacks provides generic guidance per severity tier for error types
// without a dedicated runbook
var fallbacks = map[models.Tier][]string{
	models.TierP0: {
		"Page the on-call owner of the affected services immediately",
		"Check the most recent deploys and roll back the likeliest culprit",
		"Inspect logs and error samples from the incident evidence",
		"Open an incident channel and track mitigation steps",
	},
	models.TierP1: {
		"Review logs and metrics for the affected services",
		"Correlate the degradation with recent changes",
		"Prepare a rollback in case the degradation worsens",
	},
	models.TierP2: {
		"Inspect the error samples in the incident evidence",
		"File a ticket with the owning team including the cluster label",
		"Watch for recurrence before escalating",
	},
	models.TierP3: {
		"Review the signal during business hours",
		"Tune alerting thresholds if this fires routinely without impact",
	},
}

const (
	matchedNote  = "Steps from the runbook for this error type; verify against the incident evidence before acting."
	fallbackNote = "No runbook entry for this error type; generic guidance for the severity tier."
)

// Advisor resolves remediation recommendations
type Advisor struct{}

// New creates an advisor
func New() *Advisor {
	return &Advisor{}
}

// Recommend returns the remediation for an error type at a severity tier.
// The returned action list is never empty.
func (a *Advisor) Recommend(errorType string, severity models.Tier) models.Solution {
	key := normalizeErrorType(errorType)
	if actions, ok := runbooks[key]; ok {
		return models.Solution{
			ErrorType:          errorType,
			Severity:           severity,
			RecommendedActions: append([]string(nil), actions...),
			Note:               matchedNote,
		}
	}

	actions, ok := fallbacks[severity]
	if !ok {
		actions = fallbacks[models.DefaultTier]
	}
	return models.Solution{
		ErrorType:          errorType,
		Severity:           severity,
		RecommendedActions: append([]string(nil), actions...),
		Note:               fallbackNote,
	}
}

// RecommendForCluster is Recommend with cluster traceability attached
func (a *Advisor) RecommendForCluster(cluster *models.Cluster) models.Solution {
	sol := a.Recommend(cluster.ErrorType, cluster.Severity)
	id := cluster.ID
	sol.ClusterID = &id
	return sol
}

func normalizeErrorType(errorType string) string {
	return strings.ToLower(strings.TrimSpace(errorType))
}
