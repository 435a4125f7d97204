package models

import (
	"encoding/json"
	"fmt"
)

// Tier is an ordinal severity rank. Lower values are more severe:
// P0 is an outage-class signal, P3 is informational.
type Tier int

const (
	// TierP0 covers outage-class signals (crash loops, OOM kills, 5xx saturation)
	TierP0 Tier = iota
	// TierP1 covers degraded-but-serving conditions
	TierP1
	// TierP2 covers isolated, non-customer-facing errors
	TierP2
	// TierP3 covers informational or low-confidence signals
	TierP3
)

// DefaultTier is assigned when a source provides no usable severity hint
const DefaultTier = TierP3

// String returns the product-facing tier label
func (t Tier) String() string {
	switch t {
	case TierP0:
		return "P0"
	case TierP1:
		return "P1"
	case TierP2:
		return "P2"
	case TierP3:
		return "P3"
	default:
		return fmt.Sprintf("P%d", int(t))
	}
}

// MoreSevere reports whether t outranks other (P0 outranks P1)
func (t Tier) MoreSevere(other Tier) bool {
	return t < other
}

// MostSevere returns the higher-ranking of the two tiers
func MostSevere(a, b Tier) Tier {
	if a.MoreSevere(b) {
		return a
	}
	return b
}

// ParseTier converts a tier label ("P0".."P3") back into a Tier.
// Unknown labels map to DefaultTier rather than failing: a bad hint
// must never block ingestion.
func ParseTier(label string) Tier {
	switch label {
	case "P0":
		return TierP0
	case "P1":
		return TierP1
	case "P2":
		return TierP2
	case "P3":
		return TierP3
	default:
		return DefaultTier
	}
}

// MarshalJSON encodes the tier as its label string
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier label string
func (t *Tier) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	*t = ParseTier(label)
	return nil
}
