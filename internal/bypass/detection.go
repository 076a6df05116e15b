package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Page is the part of a fetched response the detectors look at.
type Page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector examines a response to determine whether it is a block or challenge
// page rather than real content. It returns the name of the source.
type Detector func(p Page) (detected bool, source string)

// DefaultDetectors returns the detectors checked for every failed fetch.
// GitHub's own throttling comes first: it is by far the most common reason a
// search through a shared proxy fails.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGitHubRateLimit,
		detectGitHubAbuse,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs p through the detectors and returns the first matching source,
// or "" when nothing matched.
func Analyze(p Page, detectors []Detector) string {
	for _, d := range detectors {
		if detected, source := d(p); detected {
			return source
		}
	}
	return ""
}

// detectGitHubRateLimit recognizes the primary and secondary rate limit
// responses. Unauthenticated HTML search is limited per source IP.
func detectGitHubRateLimit(p Page) (bool, string) {
	if p.StatusCode != http.StatusTooManyRequests && p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if p.Header.Get("X-RateLimit-Remaining") == "0" || p.Header.Get("Retry-After") != "" {
		return true, "GitHubRateLimit"
	}
	if bytes.Contains(p.Body, []byte("rate limit")) || bytes.Contains(p.Body, []byte("Too many requests")) {
		return true, "GitHubRateLimit"
	}
	return false, ""
}

// detectGitHubAbuse recognizes the abuse-detection interstitial.
func detectGitHubAbuse(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusTooManyRequests {
		return false, ""
	}
	if bytes.Contains(p.Body, []byte("abuse detection mechanism")) {
		return true, "GitHubAbuse"
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
// Free proxies are frequently fronted by Cloudflare themselves.
func detectCloudflare(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	for _, sig := range []string{"cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare"} {
		if bytes.Contains(p.Body, []byte(sig)) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

// detectAkamai looks for Akamai Bot Manager signatures.
func detectAkamai(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "akamai") {
		return true, "Akamai"
	}
	// Akamai often returns a generic "Reference #" block page
	if bytes.Contains(p.Body, []byte("Reference #")) && bytes.Contains(p.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

// detectDataDome looks for DataDome challenge/block signatures.
func detectDataDome(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "datadome") {
		return true, "DataDome"
	}
	if p.Header.Get("X-DataDome") != "" || p.Header.Get("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(p.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(p.Body, []byte("datadome")) {
		return true, "DataDome"
	}
	return false, ""
}

// detectPerimeterX looks for PerimeterX (HUMAN) signatures.
func detectPerimeterX(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if p.Header.Get("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bytes.Contains(p.Body, []byte("client.perimeterx.net")) ||
		bytes.Contains(p.Body, []byte("px-captcha")) ||
		bytes.Contains(p.Body, []byte("_pxBlock")) {
		return true, "PerimeterX"
	}
	return false, ""
}
