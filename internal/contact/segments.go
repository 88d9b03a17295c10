package contact

import "strings"

// clean trims s and strips one wrapping bracket pair edge and one quote edge.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

// splitSegments splits s on commas and keeps the trimmed, non-empty parts.
func splitSegments(s string) []string {
	parts := strings.Split(s, ",")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// joinName joins name segments with a single space.
func joinName(segments []string) string {
	return strings.TrimSpace(strings.Join(segments, " "))
}

// joinAddress rejoins address segments with ", ".
func joinAddress(segments []string) string {
	return strings.TrimSpace(strings.Join(segments, ", "))
}
