// Package memory implements the finance ports in process. It backs the
// dev backend mode and tests, mirroring the remote backend's behavior:
// seeded default categories, date-range filtering, balance aggregation,
// and CSV report rendering.
package memory

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"finview/internal/core"
	"finview/internal/finance"
)

type Store struct {
	mu         sync.Mutex
	nextTxID   int64
	nextCatID  int64
	categories []core.Category
	items      []core.Transaction
}

// New creates a store seeded with the backend's default categories.
func New() *Store {
	s := &Store{nextTxID: 1, nextCatID: 1}
	for _, c := range defaultCategories() {
		c.ID = s.nextCatID
		s.nextCatID++
		s.categories = append(s.categories, c)
	}
	return s
}

func defaultCategories() []core.Category {
	return []core.Category{
		{Name: "Food", Description: "Groceries and dining out", IsDefault: true},
		{Name: "Transport", Description: "Transportation costs", IsDefault: true},
		{Name: "Shopping", Description: "Shopping and retail", IsDefault: true},
		{Name: "Bills", Description: "Utility bills and subscriptions", IsDefault: true},
		{Name: "Entertainment", Description: "Movies, games, and leisure", IsDefault: true},
		{Name: "Healthcare", Description: "Medical expenses", IsDefault: true},
		{Name: "Education", Description: "Educational expenses", IsDefault: true},
		{Name: "Other", Description: "Miscellaneous expenses", IsDefault: true},
		{Name: "Salary", Description: "Monthly salary", IsIncome: true, IsDefault: true},
		{Name: "Freelance", Description: "Freelance work income", IsIncome: true, IsDefault: true},
		{Name: "Investment", Description: "Investment returns", IsIncome: true, IsDefault: true},
		{Name: "Gift", Description: "Gifts received", IsIncome: true, IsDefault: true},
		{Name: "Other Income", Description: "Other income sources", IsIncome: true, IsDefault: true},
	}
}

// ListTransactions returns transactions inside the range, newest first.
func (s *Store) ListTransactions(_ context.Context, r core.DateRange) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// CreateTransaction validates the input, assigns an ID, and stores a copy.
func (s *Store) CreateTransaction(_ context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, &finance.ValidationError{Detail: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := s.findCategory(in.CategoryID)
	if cat == nil {
		return core.Transaction{}, &finance.NotFoundError{Resource: "category", ID: in.CategoryID}
	}
	tx := core.Transaction{
		ID:           s.nextTxID,
		Amount:       in.Amount,
		CategoryID:   in.CategoryID,
		CategoryName: cat.Name,
		Description:  in.Description,
		IsIncome:     in.IsIncome,
		Date:         in.Date,
	}
	s.nextTxID++
	s.items = append(s.items, tx)
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, &finance.ValidationError{Detail: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := s.findCategory(in.CategoryID)
	if cat == nil {
		return core.Transaction{}, &finance.NotFoundError{Resource: "category", ID: in.CategoryID}
	}
	for i, tx := range s.items {
		if tx.ID != id {
			continue
		}
		tx.Amount = in.Amount
		tx.CategoryID = in.CategoryID
		tx.CategoryName = cat.Name
		tx.Description = in.Description
		tx.IsIncome = in.IsIncome
		tx.Date = in.Date
		s.items[i] = tx
		return tx, nil
	}
	return core.Transaction{}, &finance.NotFoundError{Resource: "transaction", ID: id}
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return &finance.NotFoundError{Resource: "transaction", ID: id}
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, &finance.ValidationError{Detail: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == in.Name {
			return core.Category{}, &finance.ValidationError{
				Detail: fmt.Sprintf("Category with name '%s' already exists", in.Name),
			}
		}
	}
	cat := core.Category{
		ID:          s.nextCatID,
		Name:        in.Name,
		Description: in.Description,
		IsIncome:    in.IsIncome,
	}
	s.nextCatID++
	s.categories = append(s.categories, cat)
	return cat, nil
}

func (s *Store) UpdateCategory(_ context.Context, id int64, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, &finance.ValidationError{Detail: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID != id {
			continue
		}
		if c.IsDefault {
			return core.Category{}, &finance.ValidationError{Detail: "Cannot modify default categories"}
		}
		c.Name = in.Name
		c.Description = in.Description
		c.IsIncome = in.IsIncome
		s.categories[i] = c
		return c, nil
	}
	return core.Category{}, &finance.NotFoundError{Resource: "category", ID: id}
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID != id {
			continue
		}
		if c.IsDefault {
			return &finance.ValidationError{Detail: "Cannot delete default categories"}
		}
		for _, tx := range s.items {
			if tx.CategoryID == id {
				return &finance.ValidationError{Detail: "Cannot delete category with existing transactions"}
			}
		}
		s.categories = append(s.categories[:i], s.categories[i+1:]...)
		return nil
	}
	return &finance.NotFoundError{Resource: "category", ID: id}
}

// AggregateBalance sums income minus expense over the range.
func (s *Store) AggregateBalance(ctx context.Context, r core.DateRange) (core.Balance, error) {
	txs, err := s.ListTransactions(ctx, r)
	if err != nil {
		return core.Balance{}, err
	}
	balance := decimal.Zero
	for _, tx := range txs {
		if tx.IsIncome {
			balance = balance.Add(tx.Amount)
		} else {
			balance = balance.Sub(tx.Amount)
		}
	}
	return core.Balance{Balance: balance}, nil
}

// DownloadReport renders a CSV report for the range. PDF rendering lives
// on the remote backend only.
func (s *Store) DownloadReport(ctx context.Context, r core.DateRange, format finance.ReportFormat) (io.ReadCloser, error) {
	if format != finance.FormatCSV {
		return nil, &finance.ValidationError{
			Detail: fmt.Sprintf("%s reports require the remote backend", format),
		}
	}
	txs, err := s.ListTransactions(ctx, r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "amount", "category", "type", "description", "date"})
	for _, tx := range txs {
		kind := "expense"
		if tx.IsIncome {
			kind = "income"
		}
		_ = w.Write([]string{
			strconv.FormatInt(tx.ID, 10),
			core.FormatAmount(tx.Amount),
			tx.CategoryName,
			kind,
			tx.Description,
			tx.Date.String(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

// findCategory must be called with the lock held.
func (s *Store) findCategory(id int64) *core.Category {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return &s.categories[i]
		}
	}
	return nil
}
