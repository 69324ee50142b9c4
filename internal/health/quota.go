package health

import (
	"net/http"
	"strings"
	"time"
)

var quotaPatterns = []string{
	"quota exceeded",
	"rate limit",
	"too many requests",
	"request limit",
	"tokens per minute",
	"requests per minute",
	"daily limit",
	"insufficient_quota",
	"billing",
	"rate_limit_exceeded",
	"quota_exceeded",
	"resource_exhausted",
	"resource has been exhausted",
}

// IsQuotaError detects if a provider error is related to quota exhaustion or rate limiting
func IsQuotaError(statusCode int, responseBody string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	lowerBody := strings.ToLower(responseBody)
	for _, pattern := range quotaPatterns {
		if strings.Contains(lowerBody, pattern) {
			return true
		}
	}
	return false
}

// ParseCooldownDuration picks how long to stop calling the model after a quota error
func ParseCooldownDuration(statusCode int, responseBody string) time.Duration {
	lowerBody := strings.ToLower(responseBody)

	// Daily limit or billing issues
	if strings.Contains(lowerBody, "daily limit") ||
		strings.Contains(lowerBody, "billing") ||
		strings.Contains(lowerBody, "insufficient_quota") {
		return 24 * time.Hour
	}

	// Per-minute rate limit
	if statusCode == http.StatusTooManyRequests ||
		strings.Contains(lowerBody, "tokens per minute") ||
		strings.Contains(lowerBody, "requests per minute") {
		return 5 * time.Minute
	}

	return 1 * time.Hour
}
