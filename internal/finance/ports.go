// Package finance defines the ports to the record-keeping backend and the
// error taxonomy its adapters report through.
package finance

import (
	"context"
	"io"

	"finview/internal/core"
)

// ReportFormat selects the export file type requested from the backend.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// IsValid returns true if the format is one the backend can produce.
func (f ReportFormat) IsValid() bool {
	return f == FormatCSV || f == FormatPDF
}

func (f ReportFormat) String() string {
	return string(f)
}

// Ports for outbound adapters.
type (
	TransactionLister interface {
		// ListTransactions returns the transactions whose date falls in
		// the given range. Unbounded sides are not sent to the backend.
		ListTransactions(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	CategoryLister interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	CategoryWriter interface {
		CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
		UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) (core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	// ReportReader provides server-side aggregates and report files.
	ReportReader interface {
		// AggregateBalance returns the net balance for the range. Callers
		// that also list transactions must pass the identical range so
		// the two views agree.
		AggregateBalance(ctx context.Context, r core.DateRange) (core.Balance, error)

		// DownloadReport streams the rendered report. The caller owns the
		// returned reader and must close it.
		DownloadReport(ctx context.Context, r core.DateRange, format ReportFormat) (io.ReadCloser, error)
	}
)

// Backend bundles every port a fully functional client needs.
type Backend interface {
	TransactionLister
	TransactionWriter
	CategoryLister
	CategoryWriter
	ReportReader
}
