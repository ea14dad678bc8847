package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tracker/internal/core"
)

// Form field names, shared with the templates.
const (
	FieldTitle    = "title"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldType     = "type"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnknownField = errors.New("unknown form field")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ExpenseForm is the create/edit modal's local state. Values are kept exactly
// as typed.
type ExpenseForm struct {
	Title    string
	Amount   string
	Category string
	Type     core.ExpenseType
	Errors   map[string]string

	source  core.ExpenseID
	editing bool
}

// NewExpenseForm seeds a form from rec, or returns an empty create form
// defaulting to EXPENSE when rec is nil.
func NewExpenseForm(rec *core.Expense) *ExpenseForm {
	f := &ExpenseForm{}
	f.reset(rec)
	return f
}

func (f *ExpenseForm) reset(rec *core.Expense) {
	*f = ExpenseForm{Type: core.TypeExpense}
	if rec == nil {
		return
	}
	in := rec.Input()
	f.Title = in.Title
	f.Amount = in.Amount
	f.Category = in.Category
	if in.Type.Valid() {
		f.Type = in.Type
	}
	f.source = rec.ID
	f.editing = true
}

// Seed re-seeds the form when rec has a different identity than the record
// the form was last seeded from. Typed values survive a Seed with the same
// record.
func (f *ExpenseForm) Seed(rec *core.Expense) {
	switch {
	case rec == nil && !f.editing:
		return
	case rec != nil && f.editing && rec.ID == f.source:
		return
	}
	f.reset(rec)
}

// Editing reports whether the form edits an existing record.
func (f *ExpenseForm) Editing() bool {
	return f.editing
}

// Source is the ID of the record being edited; empty in create mode.
func (f *ExpenseForm) Source() core.ExpenseID {
	return f.source
}

// Set updates one field as typed.
func (f *ExpenseForm) Set(field, value string) error {
	switch field {
	case FieldTitle:
		f.Title = value
	case FieldAmount:
		f.Amount = value
	case FieldCategory:
		f.Category = value
	case FieldType:
		f.Type = core.ExpenseType(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(f.Errors, field)
	return nil
}

// Submit checks the required fields and returns the payload unchanged. On
// failure Errors holds one message per offending field.
func (f *ExpenseForm) Submit() (core.ExpenseInput, error) {
	in := core.ExpenseInput{
		Title:    f.Title,
		Amount:   f.Amount,
		Category: f.Category,
		Type:     f.Type,
	}
	f.Errors = nil

	// Whitespace-only text would pass "required" but not a browser's check.
	checked := in
	checked.Title = strings.TrimSpace(in.Title)
	checked.Amount = strings.TrimSpace(in.Amount)
	checked.Category = strings.TrimSpace(in.Category)

	err := validate.Struct(checked)
	if err == nil {
		return in, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return core.ExpenseInput{}, fmt.Errorf("validate expense form: %w", err)
	}
	f.Errors = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		f.Errors[field] = fieldMessage(field, fe.Tag())
	}
	return core.ExpenseInput{}, ErrValidation
}

func fieldMessage(field, tag string) string {
	switch tag {
	case "required":
		return "Please fill out this field."
	case "numeric":
		return "Please enter a number."
	case "oneof":
		return "Please choose Income or Expense."
	default:
		return fmt.Sprintf("Invalid %s.", field)
	}
}

// clone returns a deep copy safe to hand to templates.
func (f *ExpenseForm) clone() *ExpenseForm {
	if f == nil {
		return nil
	}
	cp := *f
	if f.Errors != nil {
		cp.Errors = make(map[string]string, len(f.Errors))
		for k, v := range f.Errors {
			cp.Errors[k] = v
		}
	}
	return &cp
}
