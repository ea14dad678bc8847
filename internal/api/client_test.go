package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

type staticToken string

func (s staticToken) BearerToken() string { return string(s) }

// recorded captures what the fake API server received.
type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type callLog struct {
	mu    sync.Mutex
	calls []recorded
}

func (l *callLog) all() []recorded {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recorded(nil), l.calls...)
}

func (l *callLog) last() recorded {
	all := l.all()
	return all[len(all)-1]
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *callLog) {
	t.Helper()
	calls := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls.mu.Lock()
		calls.calls = append(calls.calls, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(b),
		})
		calls.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestRequestHeaders(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"ok":true}`)

	t.Run("no token means no authorization header", func(t *testing.T) {
		c := NewClient(srv.URL, nil, nil)
		_, err := c.Request(context.Background(), "/profile", RequestOptions{})
		require.NoError(t, err)

		got := calls.last()
		assert.Equal(t, http.MethodGet, got.Method)
		assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
		assert.Empty(t, got.Header.Get("Authorization"))
	})

	t.Run("bound token becomes bearer header", func(t *testing.T) {
		c := NewClient(srv.URL, nil, nil).WithCredentials(staticToken("abc"))
		_, err := c.Request(context.Background(), "/profile", RequestOptions{})
		require.NoError(t, err)

		got := calls.last()
		assert.Equal(t, "Bearer abc", got.Header.Get("Authorization"))
	})

	t.Run("empty token is ignored", func(t *testing.T) {
		c := NewClient(srv.URL, nil, nil).WithCredentials(staticToken(""))
		_, err := c.Request(context.Background(), "/profile", RequestOptions{})
		require.NoError(t, err)
		assert.Empty(t, calls.last().Header.Get("Authorization"))
	})

	t.Run("caller headers win over defaults", func(t *testing.T) {
		c := NewClient(srv.URL, nil, nil)
		h := http.Header{}
		h.Set("Content-Type", "text/plain")
		h.Set("X-Extra", "1")
		_, err := c.Request(context.Background(), "/x", RequestOptions{Header: h})
		require.NoError(t, err)

		got := calls.last()
		assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
		assert.Equal(t, "1", got.Header.Get("X-Extra"))
	})
}

func TestWithCredentialsDoesNotMutateBase(t *testing.T) {
	base := NewClient("http://example.invalid/", nil, nil)
	bound := base.WithCredentials(staticToken("t"))

	assert.Nil(t, base.creds)
	assert.NotNil(t, bound.creds)
	assert.Equal(t, "http://example.invalid", base.BaseURL())
}

func TestRequestSuccessBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantNil bool
	}{
		{"no content", http.StatusNoContent, "", true},
		{"empty ok body", http.StatusOK, "", true},
		{"json body", http.StatusOK, `{"id":"x1"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			raw, err := NewClient(srv.URL, nil, nil).Request(context.Background(), "/expenses", RequestOptions{})
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, raw)
			} else {
				assert.JSONEq(t, tt.body, string(raw))
			}
		})
	}
}

func TestRequestMalformedSuccessBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "<html>oops</html>")
	_, err := NewClient(srv.URL, nil, nil).Request(context.Background(), "/expenses", RequestOptions{})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "decode", te.Op)
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Title is required"}`, "Title is required"},
		{"json without message", http.StatusInternalServerError, `{"error":"boom"}`, "Something went wrong"},
		{"unparseable body", http.StatusBadGateway, "<html>bad gateway</html>", "Bad Gateway"},
		{"empty body", http.StatusNotFound, "", "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			_, err := NewClient(srv.URL, nil, nil).Request(context.Background(), "/expenses", RequestOptions{})

			var re *RequestError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.status, re.StatusCode)
			assert.Equal(t, tt.wantMsg, re.Error())
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestRequestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, nil).Request(context.Background(), "/expenses", RequestOptions{})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "do", te.Op)
	assert.False(t, errors.As(err, new(*RequestError)))
	assert.Equal(t, "Unable to reach the server. Please try again.", Message(err))
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, IsUnauthorized(nil))
	assert.True(t, IsUnauthorized(&RequestError{StatusCode: 401, Message: "Invalid token"}))
	assert.True(t, IsUnauthorized(fmt.Errorf("load: %w", &RequestError{StatusCode: 401})))
	assert.True(t, IsUnauthorized(errors.New("Request failed with status 401")))
	assert.False(t, IsUnauthorized(&RequestError{StatusCode: 403, Message: "Forbidden"}))
	assert.False(t, IsUnauthorized(&TransportError{
		Op:     "do",
		Method: http.MethodDelete,
		URL:    "http://127.0.0.1:4010/expenses/1401?category=401",
		Err:    errors.New("connection refused"),
	}))
}

func TestTransportFailureOnIDContaining401IsNotUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, nil).DeleteExpense(context.Background(), "1401")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1401")
	assert.False(t, IsUnauthorized(err))
}

func TestDecodeErrorNamesDefaultMethod(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"totalIncome":"not a number"}`)
	_, err := NewClient(srv.URL, nil, nil).Summary(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "decode", te.Op)
	assert.Equal(t, http.MethodGet, te.Method)
	assert.Contains(t, err.Error(), "decode GET ")
}

func TestProfileWithNumericID(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"profile":{"id":5,"username":"ann","email":"a@b.c"}}`)
	prof, err := NewClient(srv.URL, nil, nil).WithCredentials(staticToken("tok")).Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "5", prof.Profile.ID.String())
	assert.Equal(t, "ann", prof.Profile.Username)
}

func TestResourcePaths(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL, nil, nil).WithCredentials(staticToken("tok"))
	ctx := context.Background()

	_, err := c.Login(ctx, core.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	_, err = c.Register(ctx, core.Registration{Username: "ann", Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	_, err = c.Profile(ctx)
	require.NoError(t, err)
	_, err = c.ListExpenses(ctx, core.ListParams{Filters: core.Filters{Type: "INCOME"}})
	require.NoError(t, err)
	_, err = c.CreateExpense(ctx, core.ExpenseInput{Title: "Coffee", Amount: "4.5", Category: "Food", Type: core.TypeExpense})
	require.NoError(t, err)
	_, err = c.UpdateExpense(ctx, "e7", core.ExpenseInput{Title: "Rent"})
	require.NoError(t, err)
	_, err = c.DeleteExpense(ctx, "a/b")
	require.NoError(t, err)
	_, err = c.Summary(ctx)
	require.NoError(t, err)

	want := []struct{ method, path string }{
		{http.MethodPost, "/auth/login"},
		{http.MethodPost, "/auth/reg"},
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/expenses"},
		{http.MethodPost, "/expenses"},
		{http.MethodPatch, "/expenses/e7"},
		{http.MethodDelete, "/expenses/a/b"},
		{http.MethodGet, "/expenses/summary"},
	}
	got := calls.all()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.method, got[i].Method, "call %d", i)
		assert.Equal(t, w.path, got[i].Path, "call %d", i)
	}

	assert.Equal(t, "category=&page=1&type=INCOME", got[3].Query)
	assert.JSONEq(t, `{"title":"Coffee","amount":"4.5","category":"Food","type":"EXPENSE"}`, got[4].Body)
	assert.Empty(t, got[6].Body)
}

func TestDecodedResources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /expenses/summary", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"totalIncome":100,"totalExpenses":40,"balance":60,"balanceStatus":"Positive"}`)
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"profile":{"username":"ann","email":"ann@example.com"}}`)
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds core.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"jwt-token","message":"Login successful"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, nil, nil)
	ctx := context.Background()

	sum, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, sum.TotalIncome.Equal(decimal.NewFromInt(100)))
	assert.True(t, sum.Positive())

	prof, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", prof.Profile.Username)

	res, err := c.Login(ctx, core.Credentials{Email: "ann@example.com", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", res.BearerToken())

	_, err = c.Login(ctx, core.Credentials{Email: "ann@example.com", Password: "wrong"})
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", Message(err))
}
