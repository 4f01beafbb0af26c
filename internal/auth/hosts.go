package auth

import "strings"

// matchesPattern checks if a host matches a pattern with a single "*" wildcard,
// either as a leading "*." label or a trailing ".*" label.
func matchesPattern(host, pattern string) bool {
	if host == pattern {
		return true
	}

	if strings.Count(pattern, "*") != 1 {
		return false
	}

	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suffix) || host == suffix
	}

	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(host, prefix+".")
	}

	return false
}

// hostAllowed reports whether host matches one of patterns. An empty pattern
// list allows every host.
func hostAllowed(host string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	// Strip the port, if any.
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	for _, pattern := range patterns {
		if matchesPattern(host, pattern) {
			return true
		}
	}
	return false
}
