package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRobotsAgent(t *testing.T) {
	tests := []struct {
		ua       string
		expected string
	}{
		{"Mozilla/5.0 (compatible; VerifyHubBot/1.0)", "VerifyHubBot"},
		{"VerifyHubBot/2.0 (+https://example.com)", "VerifyHubBot"},
		{"curl", "curl"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RobotsAgent(tt.ua); got != tt.expected {
			t.Errorf("RobotsAgent(%q) = %q, want %q", tt.ua, got, tt.expected)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		hits++
		_, _ = fmt.Fprint(w, "User-agent: VerifyHubBot\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("Mozilla/5.0 (compatible; VerifyHubBot/1.0)", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/verify/ABC")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if !allowed {
		t.Error("expected /verify/ABC to be allowed for our agent")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	allowed, _, _ = checker.CanFetch(ctx, server.URL+"/private/x")
	if allowed {
		t.Error("expected /private/x to be disallowed")
	}

	if hits != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", hits)
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	checker := NewRobotsChecker("VerifyHubBot", 200*time.Millisecond)
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/x")
	if err != nil || !allowed {
		t.Errorf("expected unreachable robots.txt to allow, got allowed=%v err=%v", allowed, err)
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3128", "internal.example, .corp")

	req := httptest.NewRequest(http.MethodGet, "https://www.coursera.org/verify/X", nil)
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "secure-proxy.local:3128" {
		t.Errorf("expected https proxy, got %v (%v)", u, err)
	}

	req = httptest.NewRequest(http.MethodGet, "http://www.linkedin.com/posts/1", nil)
	u, _ = proxy(req)
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("expected http proxy, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "https://api.internal.example/x", nil)
	if u, _ = proxy(req); u != nil {
		t.Errorf("expected no_proxy bypass, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "https://host.corp/x", nil)
	if u, _ = proxy(req); u != nil {
		t.Errorf("expected leading-dot no_proxy bypass, got %v", u)
	}
}
