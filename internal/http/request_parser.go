// This file implements utilities for parsing HTTP request data. Bodies may
// be form-encoded (plain forms, htmx defaults) or JSON (htmx json-enc).

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxBodyBytes = 64 << 10

// RequestBodyParser reads a request body once and exposes it as form values.
type RequestBodyParser struct {
	body        []byte
	contentType string
	values      url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body larger than %d bytes", maxBodyBytes)
	}
	return p
}

// Parse decodes the body as JSON when it looks like an object, and as a
// form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	p.values = url.Values{}

	if p.err != nil {
		return p.err
	}
	body := strings.TrimSpace(string(p.body))
	if body == "" {
		return nil
	}

	if body[0] == '{' {
		var data map[string]any
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
			return p.err
		}
		for k, v := range data {
			p.values.Set(k, stringValue(v))
		}
		return nil
	}

	values, err := url.ParseQuery(body)
	if err != nil {
		p.err = fmt.Errorf("decode form body: %w", err)
		return p.err
	}
	p.values = values
	return nil
}

// Get returns a value with control characters removed. It is not trimmed;
// form fields keep what the user typed.
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.values.Get(key))
}

// Has reports whether key was posted, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Values returns the sanitized posted values.
func (p *RequestBodyParser) Values() url.Values {
	out := make(url.Values, len(p.values))
	for k, vs := range p.values {
		for _, v := range vs {
			out.Add(k, sanitizeInput(v))
		}
	}
	return out
}

// IsJSON reports whether the request declared a JSON body.
func (p *RequestBodyParser) IsJSON() bool {
	return strings.HasPrefix(p.contentType, "application/json")
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and
// carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
