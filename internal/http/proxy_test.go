package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/logging"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "", logging.Nop())

	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses api.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com", logging.Nop())

	// Subdomain should bypass proxy
	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_ExactDomain verifies example.com bypasses root and subdomains.
func TestProxyFuncWithBypass_ExactDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "example.com", logging.Nop())

	// Root domain should bypass
	req, _ := http.NewRequest("GET", "https://example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for example.com, got %v", result)
	}

	// A domain without a leading dot also matches its subdomains in httpproxy.
	req2, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result2, err := proxyFunc(req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2 != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result2)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8", logging.Nop())

	// IP in range should bypass
	req, _ := http.NewRequest("GET", "http://10.1.2.3:8080/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route through proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8", logging.Nop())

	// External host should use proxy
	req, _ := http.NewRequest("GET", "https://media.example.net/v1/", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for media.example.net, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_MultiplePatterns verifies comma-separated patterns work.
func TestProxyFuncWithBypass_MultiplePatterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp", logging.Nop())

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://api.example.com/data", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"non-match", "https://media.example.net/v1/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	tests := []struct {
		name  string
		proxy config.ProxyConfig
		want  string
	}{
		{"default port", config.ProxyConfig{Host: "proxy.corp"}, "http://proxy.corp:8080"},
		{"explicit port", config.ProxyConfig{Host: "proxy.corp", Port: 3128}, "http://proxy.corp:3128"},
		{"user without password", config.ProxyConfig{Host: "proxy.corp", Port: 3128, User: "bob"}, "http://proxy.corp:3128"},
		{"credentials", config.ProxyConfig{Host: "proxy.corp", Port: 3128, User: "bob", Password: "pw"}, "http://bob:pw@proxy.corp:3128"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildProxyURL(tt.proxy).String(); got != tt.want {
				t.Errorf("buildProxyURL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	tests := []struct {
		proxy config.ProxyConfig
		want  bool
	}{
		{config.ProxyConfig{Mode: "no-proxy", User: "bob"}, false},
		{config.ProxyConfig{Mode: "basic", User: "bob"}, true},
		{config.ProxyConfig{Mode: "NTLM", User: "bob"}, true},
		{config.ProxyConfig{Mode: "ntlm", User: "bob", Password: "pw"}, false},
		{config.ProxyConfig{Mode: "basic"}, false},
	}
	for _, tt := range tests {
		cfg := &config.Config{Proxy: tt.proxy}
		if got := NeedsProxyPassword(cfg); got != tt.want {
			t.Errorf("NeedsProxyPassword(%+v) = %v, want %v", tt.proxy, got, tt.want)
		}
	}
}

func TestConfigureHTTPClientModes(t *testing.T) {
	tests := []struct {
		mode    string
		host    string
		wantErr bool
	}{
		{"no-proxy", "", false},
		{"system", "", false},
		{"basic", "proxy.corp", false},
		{"basic", "", false}, // falls back to direct
		{"ntlm", "proxy.corp", false},
		{"socks", "", true},
	}
	for _, tt := range tests {
		cfg := &config.Config{Proxy: config.ProxyConfig{Mode: tt.mode, Host: tt.host}}
		client, err := ConfigureHTTPClient(cfg, logging.Nop())
		if (err != nil) != tt.wantErr {
			t.Errorf("ConfigureHTTPClient(%s, %q) error = %v, wantErr %v", tt.mode, tt.host, err, tt.wantErr)
			continue
		}
		if err == nil && client.Timeout != 0 {
			t.Errorf("ConfigureHTTPClient(%s) Timeout = %v, want 0", tt.mode, client.Timeout)
		}
	}
}

func TestWarmupProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusNotFound) // any non-5xx answer proves connectivity
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := warmupProxy(srv.Client(), srv.URL); err != nil {
		t.Errorf("warmupProxy() = %v, want nil", err)
	}
	if err := warmupProxy(srv.Client(), srv.URL+"/broken"); err == nil {
		t.Error("warmupProxy() against 5xx = nil, want error")
	}
	if err := warmupProxy(srv.Client(), ""); err == nil {
		t.Error("warmupProxy() without base URL = nil, want error")
	}
}

func TestCreateTransferClientDirect(t *testing.T) {
	t.Setenv("HTTP_PROXY", "")
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("DISABLE_HTTP2", "")

	client, err := CreateTransferClient(&config.Config{Proxy: config.ProxyConfig{Mode: "no-proxy"}}, logging.Nop())
	if err != nil {
		t.Fatalf("CreateTransferClient failed: %v", err)
	}
	tr, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport = %T, want *http.Transport", client.Transport)
	}
	if !tr.DisableCompression {
		t.Error("DisableCompression = false, want true")
	}
	if !tr.ForceAttemptHTTP2 {
		t.Error("ForceAttemptHTTP2 = false for a direct connection, want true")
	}
}

func TestCreateTransferClientThroughProxyUsesHTTP1(t *testing.T) {
	t.Setenv("FORCE_HTTP2", "")
	cfg := &config.Config{Proxy: config.ProxyConfig{Mode: "basic", Host: "proxy.corp"}}
	client, err := CreateTransferClient(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("CreateTransferClient failed: %v", err)
	}
	tr := client.Transport.(*http.Transport)
	if tr.ForceAttemptHTTP2 {
		t.Error("ForceAttemptHTTP2 = true through a proxy, want false")
	}
}
