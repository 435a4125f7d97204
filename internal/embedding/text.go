package embedding

import (
	"strings"

	"github.com/moolen/cascade/internal/models"
)

const (
	// DefaultMaxMemberTexts bounds how many member-event texts contribute
	// to the incident embedding input
	DefaultMaxMemberTexts = 5

	// DefaultMaxTextLen bounds the total embedding input length in bytes.
	// Comparable-length inputs keep distances comparable across incidents.
	DefaultMaxTextLen = 2048
)

// IncidentText builds the bounded embedding input for an incident: the
// incident type followed by up to maxTexts member-event texts, truncated
// to maxLen. Returns "" when the incident carries no usable text; such
// incidents are excluded from clustering and counted as unembeddable.
func IncidentText(inc *models.Incident, maxTexts, maxLen int) string {
	if maxTexts <= 0 {
		maxTexts = DefaultMaxMemberTexts
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLen
	}

	var parts []string
	if inc.IncidentType != "" {
		parts = append(parts, inc.IncidentType)
	}
	for _, ev := range inc.Events {
		if len(parts) >= maxTexts+1 {
			break
		}
		if ev.Text != "" {
			parts = append(parts, ev.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return text
}
