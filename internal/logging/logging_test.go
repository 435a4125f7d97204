package logging

import (
	"context"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", INFO, true},
		{"", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestWithFieldImmutability(t *testing.T) {
	base := GetLogger("test")
	derived := base.WithField("tenant", "acme")

	if len(base.fields) != 0 {
		t.Errorf("base logger fields mutated: %v", base.fields)
	}
	if derived.fields["tenant"] != "acme" {
		t.Errorf("derived logger missing field, got %v", derived.fields)
	}
}

func TestMergeFieldsPrecedence(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey(), "trace-1")
	logger := GetLogger("test").WithContext(ctx).WithField("source", "persistent")

	merged := logger.mergeFields([]LogField{Field("source", "callsite")})

	if merged["trace_id"] != "trace-1" {
		t.Errorf("expected trace_id from context, got %v", merged["trace_id"])
	}
	if merged["source"] != "callsite" {
		t.Errorf("call-site field should win, got %v", merged["source"])
	}
}

func TestMergeFieldsEmpty(t *testing.T) {
	logger := GetLogger("test")
	if merged := logger.mergeFields(nil); merged != nil {
		t.Errorf("expected nil merged fields, got %v", merged)
	}
}
