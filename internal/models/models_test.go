package models

import (
	"testing"
	"time"
)

func TestTierOrdering(t *testing.T) {
	if !TierP0.MoreSevere(TierP1) {
		t.Error("P0 should outrank P1")
	}
	if TierP3.MoreSevere(TierP2) {
		t.Error("P3 should not outrank P2")
	}
	if got := MostSevere(TierP2, TierP0); got != TierP0 {
		t.Errorf("MostSevere(P2, P0) = %v, want P0", got)
	}
}

func TestParseTierUnknownDefaults(t *testing.T) {
	if got := ParseTier("SEV-9"); got != DefaultTier {
		t.Errorf("ParseTier unknown = %v, want %v", got, DefaultTier)
	}
}

func TestEventValidate(t *testing.T) {
	base := Event{
		ID:        "ev-1",
		Source:    SourceOrchestrator,
		Service:   "checkout",
		Signature: "oomkilled",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Text:      "container killed due to OOM",
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"valid", func(e *Event) {}, false},
		{"missing id", func(e *Event) { e.ID = "" }, true},
		{"unknown source", func(e *Event) { e.Source = "syslog" }, true},
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }, true},
		{"non-UTC timestamp", func(e *Event) {
			loc := time.FixedZone("CET", 3600)
			e.Timestamp = e.Timestamp.In(loc)
		}, true},
		{"no service but text", func(e *Event) { e.Service = "" }, false},
		{"no service no text", func(e *Event) { e.Service = ""; e.Text = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := base
			tt.mutate(&ev)
			err := ev.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIncidentAddService(t *testing.T) {
	inc := Incident{}
	inc.AddService("payments")
	inc.AddService("api-gateway")
	inc.AddService("payments") // duplicate
	inc.AddService("")         // empty ignored

	if len(inc.AffectedServices) != 2 {
		t.Fatalf("expected 2 services, got %v", inc.AffectedServices)
	}
	if inc.AffectedServices[0] != "api-gateway" {
		t.Errorf("expected sorted services, got %v", inc.AffectedServices)
	}
}

func TestClusteringRunValidate(t *testing.T) {
	score := 0.42
	run := ClusteringRun{
		NumPoints:       5,
		NumClusters:     1,
		NumNoise:        2,
		SilhouetteScore: &score,
		Clusters: []Cluster{
			{ID: 0, Size: 3, MemberIncidentIDs: []string{"a", "b", "c"}},
		},
	}
	if err := run.Validate(); err != nil {
		t.Errorf("valid run rejected: %v", err)
	}

	run.NumNoise = 1
	if err := run.Validate(); err == nil {
		t.Error("expected partition mismatch error")
	}
}

func TestEvidenceCursorRoundTrip(t *testing.T) {
	c := &EvidenceCursor{Offset: 200}
	decoded, err := DecodeEvidenceCursor(c.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Offset != 200 {
		t.Errorf("offset = %d, want 200", decoded.Offset)
	}

	if got, err := DecodeEvidenceCursor(""); got != nil || err != nil {
		t.Errorf("empty cursor should decode to nil, got %v, %v", got, err)
	}
	if _, err := DecodeEvidenceCursor("!!not-base64!!"); err == nil {
		t.Error("expected error for invalid cursor")
	}
}
