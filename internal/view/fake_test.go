package view

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/api"
	"tracker/internal/core"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeAPI is a scripted stand-in for the remote API. Every call is recorded
// by name in order.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	summary   *core.Summary
	list      []core.Expense
	lastQuery core.ListParams
	created   []core.ExpenseInput
	updated   map[core.ExpenseID]core.ExpenseInput
	profile   core.Profile

	summaryErr error
	listErr    error
	createErr  error
	updateErr  error
	deleteErr  error
	profileErr error

	// beforeList, when set, runs inside ListExpenses before it returns.
	beforeList func(params core.ListParams)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		summary: &core.Summary{
			TotalIncome:   decimal.NewFromInt(100),
			TotalExpenses: decimal.NewFromInt(40),
			Balance:       decimal.NewFromInt(60),
			BalanceStatus: core.BalanceStatusPositive,
		},
		list: []core.Expense{
			{ID: "x1", Title: "Coffee", Amount: decimal.RequireFromString("4.5"), Category: "Food", Type: core.TypeExpense},
			{ID: "e7", Title: "Rent", Amount: decimal.NewFromInt(1200), Category: "Housing", Type: core.TypeExpense},
			{ID: "i1", Title: "Salary", Amount: decimal.NewFromInt(3000), Category: "Job", Type: core.TypeIncome, IsLarge: true},
		},
		updated: map[core.ExpenseID]core.ExpenseInput{},
		profile: core.Profile{Username: "ann", Email: "ann@example.com"},
	}
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeAPI) Summary(context.Context) (*core.Summary, error) {
	f.record("summary")
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	s := *f.summary
	return &s, nil
}

func (f *fakeAPI) ListExpenses(_ context.Context, params core.ListParams) (*core.ExpenseList, error) {
	f.record("list")
	if f.beforeList != nil {
		f.beforeList(params)
	}
	f.mu.Lock()
	f.lastQuery = params
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]core.Expense, 0, len(f.list))
	for _, e := range f.list {
		if params.Type != "" && string(e.Type) != params.Type {
			continue
		}
		if params.Category != "" && e.Category != params.Category {
			continue
		}
		out = append(out, e)
	}
	return &core.ExpenseList{Expenses: out}, nil
}

func (f *fakeAPI) CreateExpense(_ context.Context, in core.ExpenseInput) (json.RawMessage, error) {
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	return json.RawMessage(`{"message":"created"}`), nil
}

func (f *fakeAPI) UpdateExpense(_ context.Context, id core.ExpenseID, in core.ExpenseInput) (json.RawMessage, error) {
	f.record("update")
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated[id] = in
	return nil, nil
}

func (f *fakeAPI) DeleteExpense(_ context.Context, id core.ExpenseID) (json.RawMessage, error) {
	f.record("delete")
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return nil, nil
}

func (f *fakeAPI) Profile(context.Context) (*core.ProfileEnvelope, error) {
	f.record("profile")
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &core.ProfileEnvelope{Profile: f.profile}, nil
}

type fakeCloser struct {
	closed int
}

func (c *fakeCloser) CloseSession(context.Context) error {
	c.closed++
	return nil
}

var errUnauthorized = &api.RequestError{StatusCode: 401, Status: "Unauthorized", Message: "Unauthorized"}
