package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"tracker/internal/core"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/reg"
	pathProfile  = "/profile"
	pathExpenses = "/expenses"
	pathSummary  = "/expenses/summary"
)

func (c *Client) Login(ctx context.Context, creds core.Credentials) (*core.AuthResult, error) {
	var out core.AuthResult
	if err := c.do(ctx, pathLogin, RequestOptions{Method: http.MethodPost, Body: creds}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, reg core.Registration) (json.RawMessage, error) {
	return c.Request(ctx, pathRegister, RequestOptions{Method: http.MethodPost, Body: reg})
}

func (c *Client) Profile(ctx context.Context) (*core.ProfileEnvelope, error) {
	var out core.ProfileEnvelope
	if err := c.do(ctx, pathProfile, RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListExpenses sends every filter key, empty or not, plus the page number.
func (c *Client) ListExpenses(ctx context.Context, params core.ListParams) (*core.ExpenseList, error) {
	var out core.ExpenseList
	path := pathExpenses + "?" + params.Query().Encode()
	if err := c.do(ctx, path, RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateExpense(ctx context.Context, in core.ExpenseInput) (json.RawMessage, error) {
	return c.Request(ctx, pathExpenses, RequestOptions{Method: http.MethodPost, Body: in})
}

// UpdateExpense sends in as a PATCH; the server treats it as a partial update.
func (c *Client) UpdateExpense(ctx context.Context, id core.ExpenseID, in core.ExpenseInput) (json.RawMessage, error) {
	return c.Request(ctx, expensePath(id), RequestOptions{Method: http.MethodPatch, Body: in})
}

func (c *Client) DeleteExpense(ctx context.Context, id core.ExpenseID) (json.RawMessage, error) {
	return c.Request(ctx, expensePath(id), RequestOptions{Method: http.MethodDelete})
}

func (c *Client) Summary(ctx context.Context) (*core.Summary, error) {
	var out core.Summary
	if err := c.do(ctx, pathSummary, RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func expensePath(id core.ExpenseID) string {
	return pathExpenses + "/" + url.PathEscape(id.String())
}
