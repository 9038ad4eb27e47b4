// Package redact scrubs credentials and signed URL parameters from strings
// before they are logged or stored as the error of a failed analysis. Document
// URLs handed to the service are often pre-signed object storage links whose
// query string grants read access, and provider errors may echo API keys.
package redact

import (
	"regexp"
	"sync"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedQueryPlaceholder      = "[REDACTED_QUERY]"
)

// Precompiled regex patterns
var (
	// Stack trace fragments
	stackTraceRegex = regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`)

	// Query strings of http(s) URLs. Signed links carry their grant here.
	urlQueryRegex = regexp.MustCompile(`(https?://[^\s?#"']+)\?[^\s#"']+`)

	// Credentials and tokens
	bearerRegex   = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`)
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
	// DashScope style sk- keys and Google API keys
	providerKeyRegex = regexp.MustCompile(`\b(?:sk-[A-Za-z0-9]{16,}|AIza[0-9A-Za-z_-]{35})`)
	apiKeyRegex      = regexp.MustCompile(
		`(?i)(api[_-]?key|x-goog-api-key|secret|access[_-]?token)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	awsKeyRegex   = regexp.MustCompile(`\bAKIA[A-Z0-9]{12,}`)
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)

	// Email addresses
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// All patterns in application order
	patterns = []*regexp.Regexp{
		stackTraceRegex, urlQueryRegex, bearerRegex, jwtTokenRegex, providerKeyRegex,
		apiKeyRegex, awsKeyRegex, passwordRegex, emailRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		stackTraceRegex:  "[STACK_TRACE_REDACTED]",
		urlQueryRegex:    "${1}?" + RedactedQueryPlaceholder,
		bearerRegex:      "Bearer " + RedactedKeyPlaceholder,
		jwtTokenRegex:    "[REDACTED_JWT]",
		providerKeyRegex: RedactedKeyPlaceholder,
		apiKeyRegex:      RedactedKeyPlaceholder,
		awsKeyRegex:      RedactedKeyPlaceholder,
		passwordRegex:    RedactedCredentialPlaceholder,
		emailRegex:       "[REDACTED_EMAIL]",
	}

	mu sync.RWMutex
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	mu.RLock()
	defer mu.RUnlock()

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
