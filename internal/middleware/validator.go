package middleware

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Input validation and sanitization utilities

var (
	analysisIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)
	fixRefPattern     = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)
)

// ValidateRepoURL validates the repository URL sent for analysis. The
// service clones it, so internal hosts are refused.
func ValidateRepoURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fmt.Errorf("repo_url cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("repo_url must include a host")
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("repo_url must point to a repository")
	}

	// SSRF protection
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost/internal IPs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
		if ip.IsPrivate() {
			return fmt.Errorf("private IP ranges are not allowed")
		}
	}

	// Block dangerous patterns
	dangerous := []string{"$(", "`", ";", "|", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(rawURL, d) {
			return fmt.Errorf("invalid characters in repo_url")
		}
	}
	return nil
}

// ValidateAnalysisID validates analysis ID format
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if !analysisIDPattern.MatchString(id) {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// ValidateFixRef accepts a stable fix ID (UUID) or a numeric index
func ValidateFixRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("fix reference cannot be empty")
	}
	if !fixRefPattern.MatchString(ref) {
		return fmt.Errorf("invalid fix reference format")
	}
	if n, err := strconv.Atoi(ref); err == nil && n < 0 {
		return fmt.Errorf("fix index cannot be negative")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 10 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates pagination page
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
