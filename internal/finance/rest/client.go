// Package rest implements the finance ports against the remote HTTP
// backend described by the service contract: JSON bodies, YYYY-MM-DD
// dates, and error responses carrying a human-readable detail field.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
)

// DefaultTimeout bounds every backend request so a stalled call becomes a
// reported error instead of an indefinite pending state.
const DefaultTimeout = 30 * time.Second

// Client talks to the finance backend over HTTP. It is safe for
// concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *log.Logger
}

// NewClient creates a backend client. A zero timeout falls back to
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger.WithComponent(log.ComponentBackend),
	}
}

// transactionPayload is the wire form of a transaction. Amounts travel as
// JSON numbers; json.Number keeps their decimal text exact in both
// directions.
type transactionPayload struct {
	ID           int64       `json:"id,omitempty"`
	Amount       json.Number `json:"amount"`
	CategoryID   int64       `json:"category_id"`
	CategoryName string      `json:"category_name,omitempty"`
	Description  string      `json:"description,omitempty"`
	IsIncome     bool        `json:"is_income"`
	Date         string      `json:"date"`
}

type categoryPayload struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsIncome    bool   `json:"is_income"`
	IsDefault   bool   `json:"is_default,omitempty"`
}

type balancePayload struct {
	Balance json.Number `json:"balance"`
}

type errorPayload struct {
	Detail string `json:"detail"`
}

// rangeQuery encodes a date range as query parameters. Unbounded sides
// are omitted entirely, never sent empty. List and aggregate reads go
// through this single function so their parameters are byte-identical.
func rangeQuery(r core.DateRange) url.Values {
	q := url.Values{}
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.String())
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.String())
	}
	return q
}

// ListTransactions implements finance.TransactionLister.
func (c *Client) ListTransactions(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	resp, err := c.do(ctx, http.MethodGet, "/transactions", rangeQuery(r), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFor(log.OpList, "transaction", 0, resp)
	}
	var payload []transactionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &finance.NetworkError{Op: "decode transactions", Err: err}
	}
	out := make([]core.Transaction, 0, len(payload))
	for _, p := range payload {
		tx, err := p.toCore()
		if err != nil {
			return nil, &finance.NetworkError{Op: "decode transactions", Err: err}
		}
		out = append(out, tx)
	}
	return out, nil
}

// AggregateBalance implements finance.ReportReader.
func (c *Client) AggregateBalance(ctx context.Context, r core.DateRange) (core.Balance, error) {
	resp, err := c.do(ctx, http.MethodGet, "/transactions/reports/aggregate", rangeQuery(r), nil)
	if err != nil {
		return core.Balance{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Balance{}, c.errorFor("aggregate", "report", 0, resp)
	}
	var payload balancePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Balance{}, &finance.NetworkError{Op: "decode balance", Err: err}
	}
	balance, err := decimalFromNumber(payload.Balance)
	if err != nil {
		return core.Balance{}, &finance.NetworkError{Op: "decode balance", Err: err}
	}
	return core.Balance{Balance: balance}, nil
}

// DownloadReport implements finance.ReportReader. The caller must close
// the returned reader.
func (c *Client) DownloadReport(ctx context.Context, r core.DateRange, format finance.ReportFormat) (io.ReadCloser, error) {
	if !format.IsValid() {
		return nil, &finance.ValidationError{Detail: fmt.Sprintf("unsupported report format %q", format)}
	}
	q := rangeQuery(r)
	q.Set("file_type", format.String())
	resp, err := c.do(ctx, http.MethodGet, "/transactions/reports/download", q, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.errorFor(log.OpExport, "report", 0, resp)
	}
	return resp.Body, nil
}

// CreateTransaction implements finance.TransactionWriter.
func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	// The backend routes creation on the trailing slash.
	resp, err := c.do(ctx, http.MethodPost, "/transactions/", nil, payloadFromInput(in))
	if err != nil {
		return core.Transaction{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return core.Transaction{}, c.errorFor(log.OpCreate, "transaction", 0, resp)
	}
	return decodeTransaction(resp.Body)
}

// UpdateTransaction implements finance.TransactionWriter.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	resp, err := c.do(ctx, http.MethodPut, "/transactions/"+strconv.FormatInt(id, 10), nil, payloadFromInput(in))
	if err != nil {
		return core.Transaction{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Transaction{}, c.errorFor(log.OpUpdate, "transaction", id, resp)
	}
	return decodeTransaction(resp.Body)
}

// DeleteTransaction implements finance.TransactionWriter.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, "/transactions/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.errorFor(log.OpDelete, "transaction", id, resp)
	}
	return nil
}

// ListCategories implements finance.CategoryLister.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	resp, err := c.do(ctx, http.MethodGet, "/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFor(log.OpList, "category", 0, resp)
	}
	var payload []categoryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &finance.NetworkError{Op: "decode categories", Err: err}
	}
	out := make([]core.Category, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.toCore())
	}
	return out, nil
}

// CreateCategory implements finance.CategoryWriter.
func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	resp, err := c.do(ctx, http.MethodPost, "/categories/", nil, categoryPayload{
		Name:        in.Name,
		Description: in.Description,
		IsIncome:    in.IsIncome,
	})
	if err != nil {
		return core.Category{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return core.Category{}, c.errorFor(log.OpCreate, "category", 0, resp)
	}
	return decodeCategory(resp.Body)
}

// UpdateCategory implements finance.CategoryWriter.
func (c *Client) UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) (core.Category, error) {
	resp, err := c.do(ctx, http.MethodPut, "/categories/"+strconv.FormatInt(id, 10), nil, categoryPayload{
		Name:        in.Name,
		Description: in.Description,
		IsIncome:    in.IsIncome,
	})
	if err != nil {
		return core.Category{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Category{}, c.errorFor(log.OpUpdate, "category", id, resp)
	}
	return decodeCategory(resp.Body)
}

// DeleteCategory implements finance.CategoryWriter.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, "/categories/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.errorFor(log.OpDelete, "category", id, resp)
	}
	return nil
}

// do executes one request. Transport failures, including timeouts, come
// back as NetworkError; HTTP-level failures are left for the caller to
// classify with errorFor.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &finance.NetworkError{Op: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &finance.NetworkError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Backend request failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err)
		return nil, &finance.NetworkError{Op: method + " " + path, Err: err}
	}
	c.logger.DebugContext(ctx, "Backend request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())
	return resp, nil
}

// errorFor classifies a non-success HTTP response: 404 is a stale ID,
// other 4xx are payload rejections carrying the backend detail, and
// everything else counts as a failed request.
func (c *Client) errorFor(op, resource string, id int64, resp *http.Response) error {
	detail := readDetail(resp.Body)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &finance.NotFoundError{Resource: resource, ID: id}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &finance.ValidationError{Detail: detail}
	default:
		return &finance.NetworkError{
			Op:  op + " " + resource,
			Err: fmt.Errorf("backend returned status %d", resp.StatusCode),
		}
	}
}

func readDetail(body io.Reader) string {
	var payload errorPayload
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}

func payloadFromInput(in core.TransactionInput) transactionPayload {
	return transactionPayload{
		Amount:      json.Number(in.Amount.String()),
		CategoryID:  in.CategoryID,
		Description: in.Description,
		IsIncome:    in.IsIncome,
		Date:        in.Date.String(),
	}
}

func (p transactionPayload) toCore() (core.Transaction, error) {
	amount, err := decimalFromNumber(p.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", p.ID, err)
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", p.ID, err)
	}
	return core.Transaction{
		ID:           p.ID,
		Amount:       amount,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Description:  p.Description,
		IsIncome:     p.IsIncome,
		Date:         date,
	}, nil
}

func (p categoryPayload) toCore() core.Category {
	return core.Category{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsIncome:    p.IsIncome,
		IsDefault:   p.IsDefault,
	}
}

func decodeTransaction(body io.Reader) (core.Transaction, error) {
	var payload transactionPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return core.Transaction{}, &finance.NetworkError{Op: "decode transaction", Err: err}
	}
	tx, err := payload.toCore()
	if err != nil {
		return core.Transaction{}, &finance.NetworkError{Op: "decode transaction", Err: err}
	}
	return tx, nil
}

func decodeCategory(body io.Reader) (core.Category, error) {
	var payload categoryPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return core.Category{}, &finance.NetworkError{Op: "decode category", Err: err}
	}
	return payload.toCore(), nil
}

func decimalFromNumber(n json.Number) (d decimal.Decimal, err error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}
