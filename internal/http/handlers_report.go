package http

import (
	"net/http"
	"time"

	"finview/internal/core"
	"finview/internal/download"
	"finview/internal/finance"
	"finview/internal/log"
	"finview/internal/report"
)

const downloadReportFallback = "Failed to download report. Please try again."

type reportsData struct {
	ActiveKind   report.Kind
	Kinds        []report.Kind
	Range        core.DateRange
	Balance      string
	Transactions []core.Transaction
	Query        string
	Error        string
}

// handleReportsPage previews the resolved range: its transactions and
// balance, read directly from the backend so the active list filter is
// left untouched.
func (s *Server) handleReportsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, override := parseSelection(r, s.fyStartMonth)
	rng := report.Resolve(sel, time.Now())
	if override != nil {
		if override.Start != nil {
			rng.Start = *override.Start
		}
		if override.End != nil {
			rng.End = *override.End
		}
	}

	errMsg := ""
	balance := ""
	var txs []core.Transaction
	if bal, err := s.backend.AggregateBalance(ctx, rng); err != nil {
		errMsg = finance.UserMessage(err, loadTransactionsFallback)
	} else {
		balance = core.FormatAmount(bal.Balance)
	}
	if listed, err := s.backend.ListTransactions(ctx, rng); err != nil {
		if errMsg == "" {
			errMsg = finance.UserMessage(err, loadTransactionsFallback)
		}
	} else {
		txs = listed
	}

	s.render(w, r, "reports.html", reportsData{
		ActiveKind:   sel.Kind,
		Kinds:        report.KnownKinds(),
		Range:        rng,
		Balance:      balance,
		Transactions: txs,
		Query:        r.URL.RawQuery,
		Error:        errMsg,
	})
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, _ := parseSelection(r, s.fyStartMonth)
	format := finance.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = finance.FormatCSV
	}

	if err := s.exports.Export(ctx, sel, format, download.NewHTTPSink(w)); err != nil {
		s.logger.ErrorContext(ctx, "Report download failed",
			log.FieldRequestID, RequestID(ctx),
			log.FieldFormat, format.String(),
			log.FieldError, err)
		status := http.StatusBadGateway
		if finance.IsValidation(err) {
			status = http.StatusBadRequest
		}
		http.Error(w, finance.UserMessage(err, downloadReportFallback), status)
	}
}
