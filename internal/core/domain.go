package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  ExpenseType = "INCOME"
	TypeExpense ExpenseType = "EXPENSE"
)

// Filter field names accepted by Filters.With.
const (
	FilterType     = "type"
	FilterCategory = "category"
)

// NoNotes is shown in place of an empty note.
const NoNotes = "No notes"

type (
	// ExpenseType tells whether a record adds to or subtracts from the balance.
	ExpenseType string

	// ExpenseID is the server-assigned identity of a record. The remote API
	// may send it as a JSON string or number.
	ExpenseID string

	Expense struct {
		ID       ExpenseID       `json:"id"`
		Title    string          `json:"title"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Note     string          `json:"note,omitempty"`
		Type     ExpenseType     `json:"type"`
		IsLarge  bool            `json:"is_large"`
	}

	// ExpenseInput is the create/update payload exactly as entered in the
	// form. Amount stays the raw field text.
	ExpenseInput struct {
		Title    string      `json:"title" validate:"required"`
		Amount   string      `json:"amount" validate:"required,numeric"`
		Category string      `json:"category" validate:"required"`
		Type     ExpenseType `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	}

	Pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		TotalPage  int `json:"totalPage"`
		TotalItems int `json:"totalItems"`
	}

	ExpenseList struct {
		Expenses   []Expense  `json:"list_of_expenses"`
		Pagination Pagination `json:"pagination"`
	}

	// Filters narrows the expense list. Empty values mean "all".
	Filters struct {
		Type     string
		Category string
	}

	ListParams struct {
		Filters
		Page int
	}
)

var (
	ErrInvalidExpenseType = errors.New("invalid expense type")
	ErrInvalidFilter      = errors.New("invalid filter")
)

// ParseExpenseType accepts INCOME or EXPENSE (case-insensitive).
func ParseExpenseType(s string) (ExpenseType, error) {
	t := ExpenseType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidExpenseType, s)
	}
	return t, nil
}

func (t ExpenseType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

func (t ExpenseType) String() string {
	return string(t)
}

func (id ExpenseID) String() string {
	return string(id)
}

func (id *ExpenseID) UnmarshalJSON(b []byte) error {
	s, err := decodeID(b)
	if err != nil {
		return fmt.Errorf("expense id: %w", err)
	}
	*id = ExpenseID(s)
	return nil
}

// decodeID reads an identifier sent as either a JSON string or number.
func decodeID(b []byte) (string, error) {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// UnmarshalJSON falls back to a Mongo-style "_id" when "id" is absent.
func (e *Expense) UnmarshalJSON(b []byte) error {
	type alias Expense
	aux := struct {
		*alias
		MongoID ExpenseID `json:"_id"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.MongoID
	}
	return nil
}

// NoteOrDefault returns the note, or NoNotes when it is blank.
func (e Expense) NoteOrDefault() string {
	if strings.TrimSpace(e.Note) == "" {
		return NoNotes
	}
	return e.Note
}

// Input converts a record into the payload shape used by the form.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Category: e.Category,
		Type:     e.Type,
	}
}

// With returns a copy of f with field set to value.
func (f Filters) With(field, value string) (Filters, error) {
	switch field {
	case FilterType:
		if value != "" && !ExpenseType(value).Valid() {
			return f, fmt.Errorf("%w: type %q", ErrInvalidFilter, value)
		}
		f.Type = value
	case FilterCategory:
		f.Category = value
	default:
		return f, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, field)
	}
	return f, nil
}

// Query encodes the parameters the way the remote API expects them; every
// key is sent even when empty.
func (p ListParams) Query() url.Values {
	page := p.Page
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("type", p.Type)
	q.Set("category", p.Category)
	q.Set("page", strconv.Itoa(page))
	return q
}
