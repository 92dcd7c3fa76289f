package validation

import (
	"fmt"
	"net/url"
)

// Wildcard allows every origin when present in an allow list.
const Wildcard = "*"

// ValidateOrigin checks a browser Origin header against allowedOrigins.
// Entries match either the full origin ("http://localhost:6006") or its
// host ("localhost:6006"); Wildcard matches any http(s) origin.
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	if originURL.Host == "" {
		return fmt.Errorf("origin '%s' has no host", origin)
	}

	for _, allowed := range allowedOrigins {
		if allowed == Wildcard || origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// OriginAllowed reports whether ValidateOrigin accepts origin.
func OriginAllowed(origin string, allowedOrigins []string) bool {
	return ValidateOrigin(origin, allowedOrigins) == nil
}
