// Package severity maps source-native signal reasons to ordinal tiers.
// The tables below are the single source of truth for tier classification;
// deployments can override individual entries through the policy file.
package severity

import (
	"github.com/moolen/cascade/internal/models"
)

// orchestratorTiers maps container-orchestrator event reasons to tiers
var orchestratorTiers = map[string]models.Tier{
	// P0 - outage-class, actively breaking workloads
	"OOMKilled":           models.TierP0,
	"CrashLoopBackOff":    models.TierP0,
	"NodeNotReady":        models.TierP0,
	"NodeOutOfDisk":       models.TierP0,
	"DiskPressure":        models.TierP0,
	"AuthenticationFailed": models.TierP0,
	"AuthorizationDenied": models.TierP0,

	// P1 - degraded but serving
	"FailedScheduling":      models.TierP1,
	"ImagePullBackOff":      models.TierP1,
	"ErrImagePull":          models.TierP1,
	"ContainerCreateError":  models.TierP1,
	"BackOff":               models.TierP1,
	"BackOffRestartPod":     models.TierP1,
	"ReadinessProbeFailure": models.TierP1,
	"LivenessProbeFailure":  models.TierP1,
	"Unhealthy":             models.TierP1,
	"FailedMount":           models.TierP1,
	"FailedAttachVolume":    models.TierP1,
	"FailedDetachVolume":    models.TierP1,
	"TLSHandshakeFailed":    models.TierP1,
	"DNSResolutionFailed":   models.TierP1,
	"InsufficientMemory":    models.TierP1,
	"Evicted":               models.TierP1,
	"MemoryPressure":        models.TierP1,
	"HighMemoryUsage":       models.TierP1,
	"HighLatency":           models.TierP1,

	// P2 - isolated, non-customer-facing
	"ConfigMapNotFound":      models.TierP2,
	"ResourceQuotaExceeded":  models.TierP2,
	"TimeoutError":           models.TierP2,
	"InvalidImageName":       models.TierP2,
	"InvalidArgument":        models.TierP2,
	"AdmissionWebhookDenied": models.TierP2,
	"Killing":                models.TierP2,
	"Preempting":             models.TierP2,

	// P3 - informational
	"Pulled":       models.TierP3,
	"Scheduled":    models.TierP3,
	"Started":      models.TierP3,
	"Created":      models.TierP3,
	"PodRestarted": models.TierP3,
}

// errorTrackerTiers maps error-tracker exception types to tiers
var errorTrackerTiers = map[string]models.Tier{
	"PoolTimeoutError":      models.TierP0,
	"DatabaseError":         models.TierP0,
	"OutOfMemoryError":      models.TierP0,
	"MemoryError":           models.TierP1,
	"ConnectionError":       models.TierP1,
	"ConfigurationError":    models.TierP1,
	"IntegrityError":        models.TierP1,
	"OperationalError":      models.TierP1,
	"TimeoutError":          models.TierP2,
	"ValidationError":       models.TierP2,
	"KeyError":              models.TierP2,
	"TypeError":             models.TierP2,
	"NullPointerException":  models.TierP2,
	"IllegalStateException": models.TierP2,
	"DeprecationWarning":    models.TierP3,
}

// cloudMetricTiers maps cloud metric names to tiers. 5xx saturation is an
// outage-class signal; resource saturation is degraded-but-serving.
var cloudMetricTiers = map[string]models.Tier{
	"HTTPCode_Target_5XX_Count": models.TierP0,
	"HTTPCode_ELB_5XX_Count":    models.TierP0,
	"DatabaseConnections":       models.TierP0,
	"CPUUtilization":            models.TierP1,
	"MemoryUtilization":         models.TierP1,
	"ReadLatency":               models.TierP1,
	"WriteLatency":              models.TierP1,
	"TargetResponseTime":        models.TierP1,
	"HTTPCode_Target_4XX_Count": models.TierP2,
	"NetworkIn":                 models.TierP3,
	"NetworkOut":                models.TierP3,
	"RequestCount":              models.TierP3,
}

// dashboardPanelTiers maps dashboard anomaly types to tiers
var dashboardPanelTiers = map[string]models.Tier{
	"high_error_rate":            models.TierP0,
	"connection_pool_exhaustion": models.TierP0,
	"cpu_spike":                  models.TierP1,
	"memory_spike":               models.TierP1,
	"slow_response":              models.TierP1,
	"cache_miss_spike":           models.TierP2,
	"gc_pressure":                models.TierP2,
	"traffic_spike":              models.TierP2,
}

// Classifier resolves severity tiers for source-native reasons, with
// optional per-deployment overrides layered on top of the builtin tables.
type Classifier struct {
	overrides map[string]models.Tier
}

// NewClassifier creates a classifier. overrides maps "source/reason" keys
// (e.g. "orchestrator/OOMKilled") to tier labels and may be nil.
func NewClassifier(overrides map[string]string) *Classifier {
	c := &Classifier{overrides: make(map[string]models.Tier, len(overrides))}
	for key, label := range overrides {
		c.overrides[key] = models.ParseTier(label)
	}
	return c
}

// Classify returns the tier for a reason observed at a source.
// Unknown reasons default to the informational tier: a low-confidence
// signal must not inflate incident severity.
func (c *Classifier) Classify(source models.Source, reason string) models.Tier {
	if reason == "" {
		return models.DefaultTier
	}
	if c != nil {
		if tier, ok := c.overrides[string(source)+"/"+reason]; ok {
			return tier
		}
	}

	var table map[string]models.Tier
	switch source {
	case models.SourceOrchestrator:
		table = orchestratorTiers
	case models.SourceErrorTracker:
		table = errorTrackerTiers
	case models.SourceCloudMetric:
		table = cloudMetricTiers
	case models.SourceDashboardPanel:
		table = dashboardPanelTiers
	default:
		return models.DefaultTier
	}

	if tier, ok := table[reason]; ok {
		return tier
	}
	return models.DefaultTier
}
