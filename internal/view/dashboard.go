// Package view holds the per-session page controllers. A controller owns the
// local state of one page, calls the remote API and reconciles its state with
// the responses; handlers render snapshots of that state.
package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"tracker/internal/api"
	"tracker/internal/core"
	"tracker/internal/log"
)

var (
	ErrInvalidFilter   = core.ErrInvalidFilter
	ErrExpenseNotFound = errors.New("expense not found in current list")
)

// ExpenseAPI is the slice of the remote API the dashboard needs.
type ExpenseAPI interface {
	Summary(ctx context.Context) (*core.Summary, error)
	ListExpenses(ctx context.Context, params core.ListParams) (*core.ExpenseList, error)
	CreateExpense(ctx context.Context, in core.ExpenseInput) (json.RawMessage, error)
	UpdateExpense(ctx context.Context, id core.ExpenseID, in core.ExpenseInput) (json.RawMessage, error)
	DeleteExpense(ctx context.Context, id core.ExpenseID) (json.RawMessage, error)
}

// SessionCloser clears the stored credential of the current session.
type SessionCloser interface {
	CloseSession(ctx context.Context) error
}

// Options are shared by the controllers of one session.
type Options struct {
	Navigator Navigator
	Closer    SessionCloser
	Logger    *log.Logger
	// ClearOnUnauthorized also clears the session token when the API
	// answers 401, not only on explicit logout.
	ClearOnUnauthorized bool
}

func (o Options) logger(component string) *log.Logger {
	if o.Logger == nil {
		return log.Discard().WithComponent(component)
	}
	return o.Logger.WithComponent(component)
}

// DashboardState is a point-in-time copy of the dashboard.
type DashboardState struct {
	Summary   *core.Summary
	Expenses  []core.Expense
	Error     string
	ModalOpen bool
	Selected  *core.Expense
	Filters   core.Filters
	Form      *ExpenseForm
	Loaded    bool
}

// Dashboard is the dashboard page controller.
//
// Loads are serialized by loadMu. Every Load takes a generation number when
// it is issued; a Load whose generation is no longer current when it gets to
// run, or when its responses arrive, leaves the state alone. The last issued
// Load therefore wins, regardless of response order.
type Dashboard struct {
	api    ExpenseAPI
	opts   Options
	logger *log.Logger

	loadMu sync.Mutex

	mu        sync.Mutex
	gen       uint64
	summary   *core.Summary
	expenses  []core.Expense
	errMsg    string
	modalOpen bool
	selected  *core.Expense
	filters   core.Filters
	form      *ExpenseForm
	loaded    bool
}

func NewDashboard(client ExpenseAPI, opts Options) *Dashboard {
	return &Dashboard{
		api:    client,
		opts:   opts,
		logger: opts.logger(log.ComponentDashboard),
	}
}

// Load fetches the summary and then the filtered list, page 1.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	return d.load(ctx, gen)
}

func (d *Dashboard) load(ctx context.Context, gen uint64) error {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		d.logger.DebugContext(ctx, "Skipping superseded load", "generation", gen)
		return nil
	}
	params := core.ListParams{Filters: d.filters, Page: 1}
	d.mu.Unlock()

	sum, err := d.api.Summary(ctx)
	if err != nil {
		return d.fail(ctx, gen, log.OpSummary, err)
	}
	if !sum.Consistent() {
		d.logger.WarnContext(ctx, "Balance status disagrees with balance",
			"balance", sum.Balance.String(),
			"balance_status", string(sum.BalanceStatus))
	}
	if !d.apply(gen, func() { d.summary = sum }) {
		return nil
	}

	list, err := d.api.ListExpenses(ctx, params)
	if err != nil {
		return d.fail(ctx, gen, log.OpList, err)
	}
	if !d.apply(gen, func() {
		d.expenses = list.Expenses
		d.errMsg = ""
		d.loaded = true
	}) {
		return nil
	}

	d.logger.DebugContext(ctx, "Dashboard loaded",
		log.FieldFilterType, params.Type,
		log.FieldFilterCat, params.Category,
		log.FieldCount, len(list.Expenses))
	return nil
}

// apply runs fn under the state lock if gen is still current. gen 0 always
// applies.
func (d *Dashboard) apply(gen uint64, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != 0 && gen != d.gen {
		return false
	}
	fn()
	return true
}

// fail records err in the banner and sends the user to login on 401.
func (d *Dashboard) fail(ctx context.Context, gen uint64, op string, err error) error {
	if !d.apply(gen, func() { d.errMsg = api.Message(err) }) {
		return err
	}

	unauthorized := api.IsUnauthorized(err)
	errType := log.ErrorTypeRemote
	if unauthorized {
		errType = log.ErrorTypeAuth
	}
	d.logger.WarnContext(ctx, "Dashboard operation failed",
		log.FieldOperation, op,
		log.FieldError, err.Error(),
		log.FieldErrorType, errType)

	if unauthorized {
		handleUnauthorized(ctx, d.opts, d.logger)
	}
	return err
}

// handleUnauthorized is the shared 401 rule for every controller.
func handleUnauthorized(ctx context.Context, opts Options, logger *log.Logger) {
	if opts.ClearOnUnauthorized && opts.Closer != nil {
		if err := opts.Closer.CloseSession(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to clear session after 401", log.FieldError, err.Error())
		}
	}
	if opts.Navigator != nil {
		opts.Navigator.Navigate(RouteLogin)
	}
}

// Delete removes id remotely, drops it from the local list and refreshes the
// summary. The list itself is not refetched.
func (d *Dashboard) Delete(ctx context.Context, id core.ExpenseID) error {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()

	if _, err := d.api.DeleteExpense(ctx, id); err != nil {
		return d.fail(ctx, 0, log.OpDelete, err)
	}

	d.mu.Lock()
	kept := make([]core.Expense, 0, len(d.expenses))
	for _, e := range d.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	d.expenses = kept
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id.String())

	sum, err := d.api.Summary(ctx)
	if err != nil {
		return d.fail(ctx, 0, log.OpSummary, err)
	}
	d.apply(0, func() { d.summary = sum })
	return nil
}

// OpenCreate opens the modal in create mode with a fresh form.
func (d *Dashboard) OpenCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = nil
	d.form = NewExpenseForm(nil)
	d.modalOpen = true
}

// OpenEdit opens the modal seeded from rec.
func (d *Dashboard) OpenEdit(rec core.Expense) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openEditLocked(rec)
}

func (d *Dashboard) openEditLocked(rec core.Expense) {
	d.selected = &rec
	d.form = NewExpenseForm(&rec)
	d.modalOpen = true
}

// OpenEditByID opens the modal for a record of the current list.
func (d *Dashboard) OpenEditByID(id core.ExpenseID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.expenses {
		if e.ID == id {
			d.openEditLocked(e)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
}

// CloseModal cancels the modal without any network call.
func (d *Dashboard) CloseModal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeModalLocked()
}

func (d *Dashboard) closeModalLocked() {
	d.modalOpen = false
	d.selected = nil
	d.form = nil
}

// SubmitForm applies the posted field values to the open form, validates
// it and saves. A validation failure returns ErrValidation with no call made.
func (d *Dashboard) SubmitForm(ctx context.Context, values url.Values) error {
	d.mu.Lock()
	if d.form == nil {
		d.form = NewExpenseForm(d.selected)
		d.modalOpen = true
	}
	for _, field := range []string{FieldTitle, FieldAmount, FieldCategory, FieldType} {
		if _, ok := values[field]; ok {
			_ = d.form.Set(field, values.Get(field))
		}
	}
	in, err := d.form.Submit()
	d.mu.Unlock()
	if err != nil {
		return err
	}
	return d.Save(ctx, in)
}

// Save updates the selected record, or creates one when none is selected.
// On success the dashboard reloads and the modal closes; on failure the
// modal stays open with the error shown.
func (d *Dashboard) Save(ctx context.Context, in core.ExpenseInput) error {
	d.mu.Lock()
	var selected *core.Expense
	if d.selected != nil {
		cp := *d.selected
		selected = &cp
	}
	d.mu.Unlock()

	op := log.OpCreate
	var err error
	if selected != nil {
		op = log.OpUpdate
		_, err = d.api.UpdateExpense(ctx, selected.ID, in)
	} else {
		_, err = d.api.CreateExpense(ctx, in)
	}
	if err != nil {
		return d.fail(ctx, 0, op, err)
	}

	d.logger.InfoContext(ctx, "Expense saved",
		log.FieldOperation, op,
		log.FieldExpenseType, in.Type.String(),
		log.FieldCategory, in.Category)

	// The modal closes even when the reload fails; the banner shows why.
	_ = d.Load(ctx)

	d.mu.Lock()
	d.closeModalLocked()
	d.mu.Unlock()
	return nil
}

// FilterChange sets one filter field.
type FilterChange struct {
	Field string
	Value string
}

// ChangeFilter merges one filter field and reloads exactly once.
func (d *Dashboard) ChangeFilter(ctx context.Context, field, value string) error {
	return d.ChangeFilters(ctx, FilterChange{Field: field, Value: value})
}

// ChangeFilters merges every change, then reloads exactly once. An invalid
// change rejects the whole batch with no Load.
func (d *Dashboard) ChangeFilters(ctx context.Context, changes ...FilterChange) error {
	if len(changes) == 0 {
		return nil
	}
	d.mu.Lock()
	f := d.filters
	for _, c := range changes {
		var err error
		if f, err = f.With(c.Field, c.Value); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	d.filters = f
	d.mu.Unlock()

	return d.Load(ctx)
}

// Logout clears the session token and goes to login.
func (d *Dashboard) Logout(ctx context.Context) error {
	var err error
	if d.opts.Closer != nil {
		err = d.opts.Closer.CloseSession(ctx)
		if err != nil {
			d.logger.ErrorContext(ctx, "Failed to clear session on logout", log.FieldError, err.Error())
		}
	}
	if d.opts.Navigator != nil {
		d.opts.Navigator.Navigate(RouteLogin)
	}
	return err
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := DashboardState{
		Error:     d.errMsg,
		ModalOpen: d.modalOpen,
		Filters:   d.filters,
		Form:      d.form.clone(),
		Loaded:    d.loaded,
	}
	if d.summary != nil {
		sum := *d.summary
		st.Summary = &sum
	}
	if d.selected != nil {
		sel := *d.selected
		st.Selected = &sel
	}
	st.Expenses = append([]core.Expense(nil), d.expenses...)
	return st
}
