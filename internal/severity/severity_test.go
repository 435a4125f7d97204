package severity

import (
	"testing"

	"github.com/moolen/cascade/internal/models"
)

func TestClassifyBuiltinTables(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		source   models.Source
		reason   string
		expected models.Tier
	}{
		{models.SourceOrchestrator, "OOMKilled", models.TierP0},
		{models.SourceOrchestrator, "CrashLoopBackOff", models.TierP0},
		{models.SourceOrchestrator, "ImagePullBackOff", models.TierP1},
		{models.SourceOrchestrator, "Pulled", models.TierP3},
		{models.SourceErrorTracker, "PoolTimeoutError", models.TierP0},
		{models.SourceErrorTracker, "ValidationError", models.TierP2},
		{models.SourceCloudMetric, "HTTPCode_Target_5XX_Count", models.TierP0},
		{models.SourceCloudMetric, "CPUUtilization", models.TierP1},
		{models.SourceDashboardPanel, "high_error_rate", models.TierP0},
		{models.SourceDashboardPanel, "gc_pressure", models.TierP2},
	}

	for _, tt := range tests {
		t.Run(string(tt.source)+"/"+tt.reason, func(t *testing.T) {
			if got := c.Classify(tt.source, tt.reason); got != tt.expected {
				t.Errorf("Classify(%s, %s) = %v, want %v", tt.source, tt.reason, got, tt.expected)
			}
		})
	}
}

func TestClassifyUnknownDefaultsToInformational(t *testing.T) {
	c := NewClassifier(nil)
	if got := c.Classify(models.SourceOrchestrator, "SomeNewReason"); got != models.TierP3 {
		t.Errorf("unknown reason = %v, want P3", got)
	}
	if got := c.Classify(models.SourceOrchestrator, ""); got != models.TierP3 {
		t.Errorf("empty reason = %v, want P3", got)
	}
	if got := c.Classify(models.Source("syslog"), "whatever"); got != models.TierP3 {
		t.Errorf("unknown source = %v, want P3", got)
	}
}

func TestClassifyOverrides(t *testing.T) {
	c := NewClassifier(map[string]string{
		"orchestrator/Pulled": "P0",
	})
	if got := c.Classify(models.SourceOrchestrator, "Pulled"); got != models.TierP0 {
		t.Errorf("override ignored, got %v", got)
	}
	// Non-overridden entries keep builtin tier
	if got := c.Classify(models.SourceOrchestrator, "OOMKilled"); got != models.TierP0 {
		t.Errorf("builtin entry broken, got %v", got)
	}
}
