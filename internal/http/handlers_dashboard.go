package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/sheets"
	"tracker/internal/view"
)

// handleDashboard mounts the dashboard: one Load, then the full page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	_ = sc.Page.Dashboard.Load(r.Context())
	if s.followNavigation(w, r, sc.Page) {
		return
	}
	s.render(w, r, http.StatusOK, tmplDashboard, s.dashboardView(sc))
}

// handleDashboardContent reloads and returns the content partial.
func (s *Server) handleDashboardContent(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	_ = sc.Page.Dashboard.Load(r.Context())
	s.renderContent(w, r, sc, nil)
}

// handleFilters applies every posted filter field whose value changed, with
// a single reload.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request").Write(w)
		return
	}

	current := sc.Page.Dashboard.Snapshot().Filters
	var changes []view.FilterChange
	for _, field := range []string{core.FilterType, core.FilterCategory} {
		if !p.Has(field) {
			continue
		}
		value := p.Get(field)
		if (field == core.FilterType && value == current.Type) || (field == core.FilterCategory && value == current.Category) {
			continue
		}
		changes = append(changes, view.FilterChange{Field: field, Value: value})
	}

	// Load failures are already in the state's error banner.
	if err := sc.Page.Dashboard.ChangeFilters(ctx, changes...); errors.Is(err, view.ErrInvalidFilter) {
		log.FromContext(ctx).WarnContext(ctx, "Rejected filter",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeValidation)
		BadRequestError("Invalid filter").Write(w)
		return
	}
	s.renderContent(w, r, sc, nil)
}

func (s *Server) handleOpenCreate(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	sc.Page.Dashboard.OpenCreate()
	s.renderContent(w, r, sc, nil)
}

func (s *Server) handleOpenEdit(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	id := core.ExpenseID(r.PathValue("id"))
	if err := sc.Page.Dashboard.OpenEditByID(id); err != nil {
		NotFoundError("That record is no longer in the list").Write(w)
		return
	}
	s.renderContent(w, r, sc, nil)
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	sc.Page.Dashboard.CloseModal()
	s.renderContent(w, r, sc, NewHTMXResponse().TriggerModalClosed())
}

// handleSaveExpense submits the modal form. Validation and API failures
// re-render the content with the modal still open.
func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request").Write(w)
		return
	}

	before := sc.Page.Dashboard.Snapshot()
	err := sc.Page.Dashboard.SubmitForm(ctx, p.Values())
	if s.followNavigation(w, r, sc.Page) {
		return
	}
	if err != nil {
		s.renderContent(w, r, sc, nil)
		return
	}

	event, id := amqp.EventExpenseCreated, ""
	if before.Selected != nil {
		event, id = amqp.EventExpenseUpdated, before.Selected.ID.String()
	}
	msg := amqp.NewActivityMessage(event, sc.Session.ID)
	msg.ExpenseID = id
	msg.Type = p.Get(view.FieldType)
	msg.Category = p.Get(view.FieldCategory)
	s.publish(ctx, msg)

	s.renderContent(w, r, sc, NewHTMXResponse().
		TriggerExpenseSaved(id).
		TriggerModalClosed().
		TriggerSuccessNotification("Saved"))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	ctx := r.Context()
	id := core.ExpenseID(r.PathValue("id"))

	err := sc.Page.Dashboard.Delete(ctx, id)
	if s.followNavigation(w, r, sc.Page) {
		return
	}
	if err != nil {
		s.renderContent(w, r, sc, nil)
		return
	}

	msg := amqp.NewActivityMessage(amqp.EventExpenseDeleted, sc.Session.ID)
	msg.ExpenseID = id.String()
	s.publish(ctx, msg)

	s.renderContent(w, r, sc, NewHTMXResponse().TriggerExpenseDeleted(id.String()))
}

// handleExport writes the list currently shown to the configured exporter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sc *sessionContext) {
	ctx := r.Context()
	if s.exporter == nil {
		NotFoundError("Export is not configured").Write(w)
		return
	}

	st := sc.Page.Dashboard.Snapshot()
	res, err := s.exporter.Export(ctx, sheets.Export{
		SessionID: sc.Session.ID,
		Filters:   st.Filters,
		Expenses:  st.Expenses,
		At:        time.Now(),
	})
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeRemote)
		NewHTMXResponse().
			Status(http.StatusOK).
			TriggerErrorNotification("Export failed. Please try again.").
			Write(w)
		return
	}

	msg := amqp.NewActivityMessage(amqp.EventListExported, sc.Session.ID)
	msg.Type = st.Filters.Type
	msg.Category = st.Filters.Category
	s.publish(ctx, msg)

	NewHTMXResponse().
		TriggerSuccessNotification(fmt.Sprintf("Exported %d records", len(st.Expenses))).
		Header("X-Export-Range", res.Range).
		Write(w)
}

func (s *Server) dashboardView(sc *sessionContext) dashboardView {
	return newDashboardView(sc.Page.Dashboard.Snapshot(), s.exporter != nil)
}

// renderContent renders the dashboard content partial, or follows a pending
// navigation instead. extra carries triggers for the response.
func (s *Server) renderContent(w http.ResponseWriter, r *http.Request, sc *sessionContext, extra *HTMXResponseBuilder) {
	if s.followNavigation(w, r, sc.Page) {
		return
	}
	if extra == nil {
		extra = NewHTMXResponse()
	}
	s.write(w, r, extra, tmplDashboardContent, s.dashboardView(sc))
}
