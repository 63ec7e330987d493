package classify

import (
	"net/url"
	"regexp"
	"strings"

	"thirdeye/internal/models"
)

// maxTargetLength is the ceiling above which a canonicalized target is
// flagged as suspicious (potential phishing / overflow attempt).
const maxTargetLength = 2048

// shortenerDomains is the fixed list of known link-shortener services.
// Matches are exact or subdomain matches against the host.
var shortenerDomains = []string{
	"bit.ly", "goo.gl", "tinyurl.com", "t.co", "ow.ly", "is.gd", "buff.ly",
	"adf.ly", "bit.do", "mcaf.ee", "su.pr", "bl.ink", "shorturl.at",
}

// privateRanges match loopback, RFC1918 and link-local hosts. These are
// hard-blocked: never analyzable, by policy.
var privateRanges = []*regexp.Regexp{
	regexp.MustCompile(`^127\.`),
	regexp.MustCompile(`^192\.168\.`),
	regexp.MustCompile(`^10\.`),
	regexp.MustCompile(`^172\.(1[6-9]|2[0-9]|3[0-1])\.`),
	regexp.MustCompile(`^0\.`),
	regexp.MustCompile(`^169\.254\.`),
}

var (
	schemeRe = regexp.MustCompile(`(?i)^https?://`)
	ipv4Re   = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
)

type classifier struct{}

// New creates a new target classifier
func New() Service {
	return &classifier{}
}

// Classify validates and categorizes a raw target string. It is a pure
// function evaluated before any provider call; rules short-circuit in
// priority order because the categories overlap (a private IP must be
// rejected even though it also matches the bare-IPv4 shape).
func (c *classifier) Classify(raw string) models.TargetClassification {
	target := strings.TrimSpace(raw)

	// Auto-correction: default to the secure scheme when none is given
	if !schemeRe.MatchString(target) {
		target = "https://" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return models.TargetClassification{
			IsValid:     false,
			Category:    models.CategoryMalformed,
			CleanTarget: raw,
			Message:     "Malformed URL. Please check syntax.",
		}
	}

	host := strings.ToLower(parsed.Hostname())

	if host == "localhost" || host == "::1" {
		return models.TargetClassification{
			IsValid:     false,
			Category:    models.CategoryLocalhostPrivate,
			CleanTarget: target,
			Message:     "Analysis of Localhost is restricted for security reasons.",
		}
	}

	for _, re := range privateRanges {
		if re.MatchString(host) {
			return models.TargetClassification{
				IsValid:     false,
				Category:    models.CategoryLocalhostPrivate,
				CleanTarget: target,
				Message:     "Analysis of Private Network IPs (LAN) is not permitted.",
			}
		}
	}

	for _, d := range shortenerDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return models.TargetClassification{
				IsValid:     true,
				Category:    models.CategoryShortURL,
				CleanTarget: target,
				Message:     "Shortened URL detected. Redirect analysis is limited in passive mode.",
			}
		}
	}

	if ipv4Re.MatchString(host) {
		return models.TargetClassification{
			IsValid:     true,
			Category:    models.CategoryIPAddress,
			CleanTarget: target,
			Message:     "Raw IP address detected. SSL verification and domain forensics may be incomplete.",
		}
	}

	if !strings.Contains(host, ".") && !strings.Contains(host, ":") {
		return models.TargetClassification{
			IsValid:     false,
			Category:    models.CategoryMalformed,
			CleanTarget: target,
			Message:     "Invalid domain format. Missing Top-Level Domain (e.g., .com, .io).",
		}
	}

	if len(target) > maxTargetLength {
		return models.TargetClassification{
			IsValid:     false,
			Category:    models.CategorySuspicious,
			CleanTarget: target,
			Message:     "URL exceeds standard length limits. Flagged as suspicious.",
		}
	}

	return models.TargetClassification{
		IsValid:     true,
		Category:    models.CategoryValid,
		CleanTarget: target,
	}
}
