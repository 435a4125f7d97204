package normalize

import (
	"regexp"
	"strings"
)

// Regex patterns compiled once at package initialization
var (
	ipv4Pattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	ipv6Pattern = regexp.MustCompile(`\b[0-9a-fA-F:]+:[0-9a-fA-F:]+\b`)

	uuidPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	isoTimestampPattern  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?\b`)
	unixTimestampPattern = regexp.MustCompile(`\b\d{10,13}\b`)

	hexPattern     = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)
	longHexPattern = regexp.MustCompile(`\b[0-9a-fA-F]{16,}\b`)

	urlPattern   = regexp.MustCompile(`\bhttps?://[a-zA-Z0-9.-]+[a-zA-Z0-9/._?=&-]*\b`)
	emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

	filePathPattern = regexp.MustCompile(`(/[a-zA-Z0-9_.-]+)+`)

	// Workload instance names carry generated hash suffixes:
	// <workload>-<replica-hash>-<instance-hash> or <workload>-<replica-hash>.
	// Instance pattern is a superset of the replica pattern, applied first.
	workloadInstancePattern = regexp.MustCompile(`\b[a-z0-9-]+-[a-z0-9]{8,10}-[a-z0-9]{5}\b`)
	workloadReplicaPattern  = regexp.MustCompile(`\b[a-z0-9-]+-[a-z0-9]{8,10}\b`)

	instanceSuffixPattern = regexp.MustCompile(`-[a-z0-9]{8,10}-[a-z0-9]{5}$`)
	replicaSuffixPattern  = regexp.MustCompile(`-[a-z0-9]{8,10}$`)
)

// Mask replaces volatile tokens in event text with stable placeholders so
// that two occurrences of the same failure produce identical text.
// HTTP status codes are deliberately preserved: returned 404 and
// returned 500 must stay distinct.
func Mask(text string) string {
	text = ipv6Pattern.ReplaceAllString(text, "<ip>")
	text = ipv4Pattern.ReplaceAllString(text, "<ip>")
	text = uuidPattern.ReplaceAllString(text, "<uuid>")
	text = isoTimestampPattern.ReplaceAllString(text, "<timestamp>")
	text = unixTimestampPattern.ReplaceAllString(text, "<timestamp>")
	text = hexPattern.ReplaceAllString(text, "<hex>")
	text = longHexPattern.ReplaceAllString(text, "<hex>")
	text = urlPattern.ReplaceAllString(text, "<url>")
	text = emailPattern.ReplaceAllString(text, "<email>")
	text = filePathPattern.ReplaceAllString(text, "<path>")
	text = maskWorkloadNames(text)
	text = maskNumbersExceptStatusCodes(text)
	return text
}

// maskWorkloadNames replaces generated workload instance names with <name>
func maskWorkloadNames(text string) string {
	text = workloadInstancePattern.ReplaceAllString(text, "<name>")
	text = workloadReplicaPattern.ReplaceAllString(text, "<name>")
	return text
}

// ServiceFromWorkloadName strips generated hash suffixes from a workload
// instance name, recovering the stable service identifier.
// "checkout-66b6c48dd5-8w7xz" and "checkout-66b6c48dd5" both yield "checkout".
func ServiceFromWorkloadName(name string) string {
	if stripped := instanceSuffixPattern.ReplaceAllString(name, ""); stripped != name {
		return stripped
	}
	return replicaSuffixPattern.ReplaceAllString(name, "")
}

// maskNumbersExceptStatusCodes masks free-standing numbers unless a nearby
// token suggests an HTTP status code context.
func maskNumbersExceptStatusCodes(text string) string {
	preserveContexts := []string{"status", "code", "http", "returned", "response"}

	tokens := strings.Fields(text)
	for i, token := range tokens {
		if !isNumber(token) {
			continue
		}

		mask := true
		for j := max(0, i-3); j < min(len(tokens), i+4); j++ {
			if j == i {
				continue
			}
			lower := strings.ToLower(tokens[j])
			for _, ctx := range preserveContexts {
				if strings.Contains(lower, ctx) {
					mask = false
					break
				}
			}
			if !mask {
				break
			}
		}
		if mask {
			tokens[i] = "<num>"
		}
	}
	return strings.Join(tokens, " ")
}

func isNumber(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
