package bypass

import (
	"net/http"
	"testing"
)

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestDetectors(t *testing.T) {
	tests := []struct {
		name   string
		page   Page
		detect Detector
		want   string
	}{
		{"github rate limit header", Page{StatusCode: 429, Header: header("Retry-After", "60")}, detectGitHubRateLimit, "GitHubRateLimit"},
		{"github rate limit remaining", Page{StatusCode: 403, Header: header("X-RateLimit-Remaining", "0")}, detectGitHubRateLimit, "GitHubRateLimit"},
		{"github rate limit body", Page{StatusCode: 429, Header: header(), Body: []byte("Too many requests")}, detectGitHubRateLimit, "GitHubRateLimit"},
		{"github rate limit ignores 200", Page{StatusCode: 200, Header: header("Retry-After", "60")}, detectGitHubRateLimit, ""},
		{"github abuse", Page{StatusCode: 403, Header: header(), Body: []byte("You have triggered an abuse detection mechanism.")}, detectGitHubAbuse, "GitHubAbuse"},
		{"cloudflare not blocked", Page{StatusCode: 200, Header: header("Server", "nginx"), Body: []byte("OK")}, detectCloudflare, ""},
		{"cloudflare header", Page{StatusCode: 403, Header: header("Server", "cloudflare"), Body: []byte("Access Denied")}, detectCloudflare, "Cloudflare"},
		{"cloudflare body", Page{StatusCode: 503, Header: header(), Body: []byte("<html>... cf-turnstile ...</html>")}, detectCloudflare, "Cloudflare"},
		{"akamai header", Page{StatusCode: 403, Header: header("Server", "AkamaiGHost")}, detectAkamai, "Akamai"},
		{"akamai body", Page{StatusCode: 403, Header: header(), Body: []byte("Access Denied... Reference #123.456")}, detectAkamai, "Akamai"},
		{"datadome header", Page{StatusCode: 403, Header: header("X-DataDome", "1")}, detectDataDome, "DataDome"},
		{"datadome body", Page{StatusCode: 403, Header: header(), Body: []byte("script src='https://geo.captcha-delivery.com/...'")}, detectDataDome, "DataDome"},
		{"perimeterx header", Page{StatusCode: 403, Header: header("X-Px-Captcha", "required")}, detectPerimeterX, "PerimeterX"},
		{"perimeterx body", Page{StatusCode: 403, Header: header(), Body: []byte("window._pxBlock = true;")}, detectPerimeterX, "PerimeterX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detected, src := tt.detect(tt.page)
			if detected != (tt.want != "") || src != tt.want {
				t.Errorf("got (%v, %q), want source %q", detected, src, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	detectors := DefaultDetectors()

	blocked := Page{StatusCode: 403, Header: header("X-DataDome", "1")}
	if src := Analyze(blocked, detectors); src != "DataDome" {
		t.Errorf("expected DataDome, got %q", src)
	}

	// rate limit wins over Cloudflare when both match
	both := Page{StatusCode: 429, Header: header("Retry-After", "10", "Server", "cloudflare")}
	if src := Analyze(both, detectors); src != "GitHubRateLimit" {
		t.Errorf("expected GitHubRateLimit first, got %q", src)
	}

	safe := Page{StatusCode: 200, Header: header(), Body: []byte("hello")}
	if src := Analyze(safe, detectors); src != "" {
		t.Errorf("expected no detection, got %q", src)
	}
}
