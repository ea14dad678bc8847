package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct peer", "203.0.113.9:5000", nil, "203.0.113.9"},
		{"untrusted peer ignores XFF", "203.0.113.9:5000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.9"},
		{"trusted proxy uses first XFF", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "1.2.3.4"},
		{"trusted proxy falls back to X-Real-IP", "127.0.0.1:5000", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"garbage XFF", "192.168.1.1:5000", map[string]string{"X-Forwarded-For": "nope"}, "192.168.1.1"},
		{"ipv6 loopback", "[::1]:5000", map[string]string{"X-Forwarded-For": "2001:db8::1"}, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

func TestLocalPath(t *testing.T) {
	r := httptest.NewRequest("GET", "/profile", nil) // Host: example.com

	tests := []struct{ raw, want string }{
		{"", ""},
		{"/dashboard", "/dashboard"},
		{"/dashboard?type=INCOME", "/dashboard?type=INCOME"},
		{"http://example.com/dashboard", "/dashboard"},
		{"https://example.com/ui/dashboard", "/ui/dashboard"},
		{"https://evil.example/dashboard", ""},
		{"//evil.example/dashboard", ""},
		{`/\evil.example`, ""},
		{"javascript:alert(1)", ""},
		{"dashboard", ""},
		{"ftp://example.com/dashboard", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, localPath(r, tt.raw), "localPath(%q)", tt.raw)
	}
}

func TestBackTarget(t *testing.T) {
	post := func(from, referer string) string {
		form := url.Values{}
		if from != "" {
			form.Set("from", from)
		}
		r := httptest.NewRequest("POST", "/profile/back", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if referer != "" {
			r.Header.Set("Referer", referer)
		}
		return backTarget(r)
	}

	assert.Equal(t, "/dashboard?type=INCOME", post("/dashboard?type=INCOME", ""))
	assert.Equal(t, "/register", post("", "http://example.com/register"))
	assert.Equal(t, "/dashboard", post("", "http://example.com/profile"), "never back to the profile itself")
	assert.Equal(t, "/dashboard", post("https://evil.example/x", ""))
	assert.Equal(t, "/dashboard", post("", ""))
}

func TestWithSecurityHeadersTLS(t *testing.T) {
	h := withSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "https://example.com/", nil))
	assert.Contains(t, rr.Header().Get("Strict-Transport-Security"), "max-age=")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "http://example.com/", nil))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
}
