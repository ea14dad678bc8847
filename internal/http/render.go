package http

import (
	"bytes"
	"html/template"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/view"
	appweb "tracker/web"
)

// Template names.
const (
	tmplLogin            = "login.html"
	tmplRegister         = "register.html"
	tmplDashboard        = "dashboard.html"
	tmplProfile          = "profile.html"
	tmplDashboardContent = "dashboard-content"
)

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

type summaryView struct {
	TotalIncome   string
	TotalExpenses string
	Balance       string
	Status        string
	Positive      bool
}

type expenseView struct {
	ID       string
	Title    string
	Amount   string
	Category string
	Note     string
	Type     string
	Income   bool
	Large    bool
}

type formView struct {
	Title    string
	Amount   string
	Category string
	Type     string
	Editing  bool
	Errors   map[string]string
	Types    []string
}

type dashboardView struct {
	Summary       *summaryView
	Expenses      []expenseView
	Error         string
	Filters       core.Filters
	ModalOpen     bool
	Form          *formView
	Loaded        bool
	ExportEnabled bool
}

var expenseTypes = []string{core.TypeExpense.String(), core.TypeIncome.String()}

func newDashboardView(st view.DashboardState, exportEnabled bool) dashboardView {
	v := dashboardView{
		Error:         st.Error,
		Filters:       st.Filters,
		ModalOpen:     st.ModalOpen,
		Loaded:        st.Loaded,
		ExportEnabled: exportEnabled,
	}
	if st.Summary != nil {
		v.Summary = &summaryView{
			TotalIncome:   core.FormatCurrency(st.Summary.TotalIncome),
			TotalExpenses: core.FormatCurrency(st.Summary.TotalExpenses),
			Balance:       core.FormatCurrency(st.Summary.Balance),
			Status:        string(st.Summary.BalanceStatus),
			Positive:      st.Summary.Positive(),
		}
	}
	for _, e := range st.Expenses {
		v.Expenses = append(v.Expenses, expenseView{
			ID:       e.ID.String(),
			Title:    e.Title,
			Amount:   core.FormatPlainCurrency(e.Amount),
			Category: e.Category,
			Note:     e.NoteOrDefault(),
			Type:     e.Type.String(),
			Income:   e.Type == core.TypeIncome,
			Large:    e.IsLarge,
		})
	}
	if st.ModalOpen && st.Form != nil {
		v.Form = &formView{
			Title:    st.Form.Title,
			Amount:   st.Form.Amount,
			Category: st.Form.Category,
			Type:     st.Form.Type.String(),
			Editing:  st.Form.Editing(),
			Errors:   st.Form.Errors,
			Types:    expenseTypes,
		}
	}
	return v
}

type profileView struct {
	Profile *core.Profile
	Error   string
	// From is where the back button returns to.
	From string
}

type authView struct {
	Error      string
	Email      string
	Username   string
	Registered bool
	Errors     map[string]string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	s.write(w, r, NewHTMXResponse().Status(status), name, data)
}

// write executes name into a buffer first so a template error never
// leaves a half-written page.
func (s *Server) write(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err.Error())
		InternalServerError("Something went wrong rendering this page").Write(w)
		return
	}
	b.BodyHTML(buf.Bytes()).Write(w)
}
