package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"finview/internal/core"
	"finview/internal/finance"
)

func seedTransaction(t *testing.T, s *Store, amount string, catID int64, isIncome bool, date core.Date) core.Transaction {
	t.Helper()
	a, err := core.ParseAmount(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}
	tx, err := s.CreateTransaction(context.Background(), core.TransactionInput{
		Amount:     a,
		CategoryID: catID,
		IsIncome:   isIncome,
		Date:       date,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func TestDefaultCategoriesSeeded(t *testing.T) {
	s := New()
	cats, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatalf("expected seeded categories")
	}
	income := core.FilterByIncome(cats, true)
	expense := core.FilterByIncome(cats, false)
	if len(income) == 0 || len(expense) == 0 {
		t.Fatalf("expected both partitions seeded, got %d income / %d expense", len(income), len(expense))
	}
	for _, c := range cats {
		if !c.IsDefault {
			t.Fatalf("seeded category %q should be default", c.Name)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx := seedTransaction(t, s, "100.50", 3, false, core.NewDate(2024, 1, 15))
	if tx.ID == 0 {
		t.Fatalf("expected assigned ID")
	}
	if tx.CategoryName == "" {
		t.Fatalf("expected resolved category name")
	}

	a, _ := core.ParseAmount("75.25")
	updated, err := s.UpdateTransaction(ctx, tx.ID, core.TransactionInput{
		Amount:     a,
		CategoryID: tx.CategoryID,
		IsIncome:   false,
		Date:       tx.Date,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if core.FormatAmount(updated.Amount) != "75.25" {
		t.Fatalf("update did not apply: %+v", updated)
	}

	if err := s.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, tx.ID); !finance.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if _, err := s.UpdateTransaction(ctx, tx.ID, core.TransactionInput{
		Amount: a, CategoryID: 3, Date: tx.Date,
	}); !finance.IsNotFound(err) {
		t.Fatalf("update of deleted transaction should be not found, got %v", err)
	}
}

func TestListTransactionsRangeFilter(t *testing.T) {
	s := New()
	seedTransaction(t, s, "10", 1, false, core.NewDate(2024, 1, 5))
	inRange := seedTransaction(t, s, "20", 1, false, core.NewDate(2024, 1, 15))
	seedTransaction(t, s, "30", 1, false, core.NewDate(2024, 2, 1))

	r := core.DateRange{Start: core.NewDate(2024, 1, 10), End: core.NewDate(2024, 1, 31)}
	txs, err := s.ListTransactions(context.Background(), r)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != inRange.ID {
		t.Fatalf("range filter wrong: %+v", txs)
	}

	all, _ := s.ListTransactions(context.Background(), core.DateRange{})
	if len(all) != 3 {
		t.Fatalf("unbounded range should return everything, got %d", len(all))
	}
}

func TestAggregateBalance(t *testing.T) {
	s := New()
	// Category 1 is an expense category, 9 (Salary) income in seeded order
	// by name; resolve IDs from the store instead of assuming.
	cats, _ := s.ListCategories(context.Background())
	var expenseID, incomeID int64
	for _, c := range cats {
		if c.IsIncome && incomeID == 0 {
			incomeID = c.ID
		}
		if !c.IsIncome && expenseID == 0 {
			expenseID = c.ID
		}
	}

	seedTransaction(t, s, "2500.00", incomeID, true, core.NewDate(2024, 1, 1))
	seedTransaction(t, s, "100.50", expenseID, false, core.NewDate(2024, 1, 15))
	seedTransaction(t, s, "400.00", expenseID, false, core.NewDate(2024, 2, 15))

	b, err := s.AggregateBalance(context.Background(), core.DateRange{
		Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31),
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if b.Balance.StringFixed(2) != "2399.50" {
		t.Fatalf("balance = %s, want 2399.50", b.Balance)
	}
}

func TestCategoryProtection(t *testing.T) {
	s := New()
	ctx := context.Background()
	cats, _ := s.ListCategories(ctx)

	def := cats[0]
	if _, err := s.UpdateCategory(ctx, def.ID, core.CategoryInput{Name: "Renamed"}); !finance.IsValidation(err) {
		t.Fatalf("default category update should be rejected, got %v", err)
	}
	if err := s.DeleteCategory(ctx, def.ID); !finance.IsValidation(err) {
		t.Fatalf("default category delete should be rejected, got %v", err)
	}

	custom, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Pets", IsIncome: false})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := s.CreateCategory(ctx, core.CategoryInput{Name: "Pets"}); !finance.IsValidation(err) {
		t.Fatalf("duplicate name should be rejected, got %v", err)
	}

	seedTransaction(t, s, "10", custom.ID, false, core.NewDate(2024, 1, 1))
	if err := s.DeleteCategory(ctx, custom.ID); !finance.IsValidation(err) {
		t.Fatalf("category in use should not be deletable, got %v", err)
	}
}

func TestDownloadReportCSV(t *testing.T) {
	s := New()
	seedTransaction(t, s, "100.50", 3, false, core.NewDate(2024, 1, 15))

	rc, err := s.DownloadReport(context.Background(), core.DateRange{}, finance.FormatCSV)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	body := string(data)
	if !strings.HasPrefix(body, "id,amount,category,type,description,date\n") {
		t.Fatalf("missing header: %q", body)
	}
	if !strings.Contains(body, "100.50") || !strings.Contains(body, "2024-01-15") {
		t.Fatalf("row missing fields: %q", body)
	}

	if _, err := s.DownloadReport(context.Background(), core.DateRange{}, finance.FormatPDF); !finance.IsValidation(err) {
		t.Fatalf("pdf should be rejected by the memory backend, got %v", err)
	}
}
