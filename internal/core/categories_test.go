package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func sampleCategories() []Category {
	return []Category{
		{ID: 1, Name: "Food", IsIncome: false, IsDefault: true},
		{ID: 2, Name: "Salary", IsIncome: true, IsDefault: true},
		{ID: 3, Name: "Transport", IsIncome: false},
		{ID: 4, Name: "Freelance", IsIncome: true},
		{ID: 5, Name: "Bills", IsIncome: false},
	}
}

func TestFilterByIncomeIsPartition(t *testing.T) {
	cats := sampleCategories()
	income := FilterByIncome(cats, true)
	expense := FilterByIncome(cats, false)

	if len(income)+len(expense) != len(cats) {
		t.Fatalf("partition lost elements: %d + %d != %d", len(income), len(expense), len(cats))
	}

	// Union in input order reconstructs the input.
	var merged []Category
	i, e := 0, 0
	for _, c := range cats {
		if c.IsIncome {
			merged = append(merged, income[i])
			i++
		} else {
			merged = append(merged, expense[e])
			e++
		}
	}
	for idx := range cats {
		if merged[idx].ID != cats[idx].ID {
			t.Fatalf("order not preserved at %d: got %d, want %d", idx, merged[idx].ID, cats[idx].ID)
		}
	}
}

func TestFilterByIncomeNeverNil(t *testing.T) {
	if got := FilterByIncome(nil, true); got == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if got := FilterByIncome([]Category{{ID: 1, IsIncome: false}}, true); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestValidateCategory(t *testing.T) {
	cats := sampleCategories()
	in := TransactionInput{
		Amount:     decimal.RequireFromString("10"),
		CategoryID: 3,
		IsIncome:   false,
		Date:       NewDate(2024, 1, 15),
	}
	if err := ValidateCategory(in, cats); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	in.IsIncome = true // Transport is an expense category
	if err := ValidateCategory(in, cats); err != ErrCategoryMismatch {
		t.Fatalf("expected ErrCategoryMismatch, got %v", err)
	}

	in.CategoryID = 99
	if err := ValidateCategory(in, cats); err != ErrUnknownCategory {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}
