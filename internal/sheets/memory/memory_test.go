package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
	ports "tracker/internal/sheets"
)

func TestStoreExport(t *testing.T) {
	s := New()
	list := []core.Expense{
		{ID: "a", Title: "Coffee", Amount: decimal.RequireFromString("4.5"), Category: "Food", Type: core.TypeExpense},
		{ID: "b", Title: "Salary", Amount: decimal.NewFromInt(3000), Category: "Job", Type: core.TypeIncome},
	}

	res, err := s.Export(context.Background(), ports.Export{SessionID: "s1", Expenses: list})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Rows != 2 || res.Range != "mem:1-2" {
		t.Errorf("Export() = %+v, want 2 rows at mem:1-2", res)
	}

	list[0].Title = "changed"
	res, _ = s.Export(context.Background(), ports.Export{SessionID: "s1", Expenses: list[:1]})
	if res.Range != "mem:3-3" {
		t.Errorf("second Export() range = %q, want mem:3-3", res.Range)
	}

	got := s.Exports()
	if len(got) != 2 {
		t.Fatalf("Exports() len = %d, want 2", len(got))
	}
	if got[0].Expenses[0].Title != "Coffee" {
		t.Error("Export must keep its own copy of the list")
	}
}
