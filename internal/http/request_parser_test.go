package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader("title=%20Coffee%20&amount=4.5&category="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := p.Get("title"); got != " Coffee " {
		t.Errorf("Get(title) = %q, want untrimmed value", got)
	}
	if got := p.Get("amount"); got != "4.5" {
		t.Errorf("Get(amount) = %q, want 4.5", got)
	}
	if !p.Has("category") {
		t.Error("Has(category) = false for an empty posted field")
	}
	if p.Has("type") {
		t.Error("Has(type) = true for a field never posted")
	}
	if p.IsJSON() {
		t.Error("IsJSON() = true for a form body")
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"title":"Salary","amount":3000.5,"category":"Job","recurring":true,"tags":["x"]}`
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := map[string]string{
		"title":     "Salary",
		"amount":    "3000.5",
		"category":  "Job",
		"recurring": "true",
		"tags":      "",
	}
	for key, want := range tests {
		if got := p.Get(key); got != want {
			t.Errorf("Get(%s) = %q, want %q", key, got, want)
		}
	}
	if !p.IsJSON() {
		t.Error("IsJSON() = false for a JSON body")
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader(`{"title":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("Parse() should fail on truncated JSON")
	}
	// The error is sticky.
	if err := p.Parse(); err == nil {
		t.Fatal("second Parse() should return the same error")
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	big := "title=" + strings.Repeat("a", maxBodyBytes)
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader(big))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("Parse() should reject an oversized body")
	}
}

func TestRequestBodyParser_Values(t *testing.T) {
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader("title=Rent%00&note=line1%0Aline2"))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	v := p.Values()
	if got := v.Get("title"); got != "Rent" {
		t.Errorf("Values() title = %q, want NUL stripped", got)
	}
	if got := v.Get("note"); got != "line1\nline2" {
		t.Errorf("Values() note = %q, want newline kept", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"  spaced  ", "  spaced  "},
		{"tab\there", "tab\there"},
		{"bell\x07", "bell"},
		{"esc\x1b[0m", "esc[0m"},
		{"crlf\r\n", "crlf\r\n"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
