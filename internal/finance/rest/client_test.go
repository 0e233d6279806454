package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finview/internal/core"
	"finview/internal/finance"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, nil)
}

func TestListTransactionsQueryParameters(t *testing.T) {
	cases := []struct {
		name  string
		r     core.DateRange
		query string
	}{
		{"both bounds", core.DateRange{Start: core.NewDate(2024, 1, 8), End: core.NewDate(2024, 1, 15)}, "end_date=2024-01-15&start_date=2024-01-08"},
		{"start only", core.DateRange{Start: core.NewDate(2024, 1, 8)}, "start_date=2024-01-08"},
		{"end only", core.DateRange{End: core.NewDate(2024, 1, 15)}, "end_date=2024-01-15"},
		{"unbounded omits params", core.DateRange{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotQuery string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				w.Write([]byte(`[]`))
			})
			if _, err := client.ListTransactions(context.Background(), tc.r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotQuery != tc.query {
				t.Fatalf("query = %q, want %q", gotQuery, tc.query)
			}
		})
	}
}

func TestListAndAggregateUseIdenticalParameters(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 6, 30)}

	var listQuery, aggQuery string
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/transactions":
			listQuery = req.URL.RawQuery
			w.Write([]byte(`[]`))
		case "/transactions/reports/aggregate":
			aggQuery = req.URL.RawQuery
			w.Write([]byte(`{"balance": 0}`))
		default:
			t.Errorf("unexpected path %s", req.URL.Path)
		}
	})

	if _, err := client.ListTransactions(context.Background(), r); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := client.AggregateBalance(context.Background(), r); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if listQuery == "" || listQuery != aggQuery {
		t.Fatalf("list query %q differs from aggregate query %q", listQuery, aggQuery)
	}
}

func TestListTransactionsDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 7, "amount": 100.50, "category_id": 3, "category_name": "Food", "is_income": false, "date": "2024-01-15"},
			{"id": 8, "amount": 2500, "category_id": 2, "category_name": "Salary", "description": "January", "is_income": true, "date": "2024-01-31"}
		]`))
	})

	txs, err := client.ListTransactions(context.Background(), core.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].ID != 7 || core.FormatAmount(txs[0].Amount) != "100.50" || txs[0].CategoryID != 3 {
		t.Fatalf("first transaction decoded wrong: %+v", txs[0])
	}
	if txs[1].Date.String() != "2024-01-31" || !txs[1].IsIncome {
		t.Fatalf("second transaction decoded wrong: %+v", txs[1])
	}
}

func TestAggregateBalanceDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance": -42.75}`))
	})
	b, err := client.AggregateBalance(context.Background(), core.DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Balance.StringFixed(2) != "-42.75" {
		t.Fatalf("balance = %s, want -42.75", b.Balance)
	}
}

func TestCreateTransactionRoundTrip(t *testing.T) {
	var gotPath, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42, "amount": 100.5, "category_id": 3, "is_income": false, "date": "2024-01-15"}`))
	})

	amount, err := core.ParseAmount("100.50")
	if err != nil {
		t.Fatalf("parse amount: %v", err)
	}
	tx, err := client.CreateTransaction(context.Background(), core.TransactionInput{
		Amount:     amount,
		CategoryID: 3,
		IsIncome:   false,
		Date:       core.NewDate(2024, 1, 15),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "POST /transactions/" {
		t.Fatalf("path = %q, want POST /transactions/", gotPath)
	}
	// The amount must travel as a JSON number, not a quoted string.
	if want := `"amount":100.5`; !containsStr(gotBody, want) {
		t.Fatalf("body %q missing %q", gotBody, want)
	}
	if tx.ID != 42 || core.FormatAmount(tx.Amount) != "100.50" || tx.CategoryID != 3 {
		t.Fatalf("created transaction decoded wrong: %+v", tx)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		detail string
	}{
		{"not found", http.StatusNotFound, `{"detail": "Transaction not found"}`, finance.IsNotFound, ""},
		{"validation detail", http.StatusBadRequest, `{"detail": "Category with name 'Food' already exists"}`, finance.IsValidation, "Category with name 'Food' already exists"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"detail": "Date must be in YYYY-MM-DD format"}`, finance.IsValidation, "Date must be in YYYY-MM-DD format"},
		{"server error", http.StatusInternalServerError, ``, finance.IsNetwork, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			err := client.DeleteTransaction(context.Background(), 9)
			if err == nil {
				t.Fatalf("expected error for status %d", tc.status)
			}
			if !tc.check(err) {
				t.Fatalf("wrong error type for status %d: %v", tc.status, err)
			}
			if tc.detail != "" && finance.UserMessage(err, "fallback") != tc.detail {
				t.Fatalf("detail = %q, want %q", finance.UserMessage(err, "fallback"), tc.detail)
			}
		})
	}
}

func TestTimeoutBecomesNetworkError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	})
	client.httpc.Timeout = 20 * time.Millisecond

	_, err := client.ListTransactions(context.Background(), core.DateRange{})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !finance.IsNetwork(err) {
		t.Fatalf("timeout should surface as NetworkError, got %T: %v", err, err)
	}
}

func TestDownloadReport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/reports/download" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("file_type"); got != "csv" {
			t.Errorf("file_type = %q, want csv", got)
		}
		if got := r.URL.Query().Get("start_date"); got != "2024-01-01" {
			t.Errorf("start_date = %q", got)
		}
		w.Write([]byte("amount,category\n"))
	})

	rc, err := client.DownloadReport(context.Background(),
		core.DateRange{Start: core.NewDate(2024, 1, 1)}, finance.FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "amount,category\n" {
		t.Fatalf("body = %q", data)
	}

	if _, err := client.DownloadReport(context.Background(), core.DateRange{}, "xlsx"); !finance.IsValidation(err) {
		t.Fatalf("unsupported format should be a validation error, got %v", err)
	}
}

func containsStr(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
