package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/report"
)

type stubReports struct {
	calls     int
	lastRange core.DateRange
	format    finance.ReportFormat
	body      string
	err       error
}

func (s *stubReports) AggregateBalance(context.Context, core.DateRange) (core.Balance, error) {
	return core.Balance{}, nil
}

func (s *stubReports) DownloadReport(_ context.Context, r core.DateRange, f finance.ReportFormat) (io.ReadCloser, error) {
	s.calls++
	s.lastRange = r
	s.format = f
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

type recordingSink struct {
	name        string
	contentType string
	body        bytes.Buffer
	err         error
	delivered   int
}

func (s *recordingSink) Deliver(name, contentType string, r io.Reader) error {
	s.delivered++
	s.name = name
	s.contentType = contentType
	if s.err != nil {
		return s.err
	}
	_, err := io.Copy(&s.body, r)
	return err
}

func TestFilename(t *testing.T) {
	cases := []struct {
		name   string
		r      core.DateRange
		format finance.ReportFormat
		want   string
	}{
		{"bounded csv", core.DateRange{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}, finance.FormatCSV, "transactions_2024-01-01_2024-01-31.csv"},
		{"unbounded pdf", core.DateRange{}, finance.FormatPDF, "transactions_all_all.pdf"},
		{"open end", core.DateRange{Start: core.NewDate(2024, 1, 1)}, finance.FormatCSV, "transactions_2024-01-01_all.csv"},
		{"open start", core.DateRange{End: core.NewDate(2024, 1, 31)}, finance.FormatCSV, "transactions_all_2024-01-31.csv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filename(tc.r, tc.format); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExportDeliversReport(t *testing.T) {
	reports := &stubReports{body: "id,amount\n1,2.50\n"}
	sink := &recordingSink{}
	ec := NewExportController(reports, sink, nil)
	ec.now = fixedNow

	sel := report.Selection{Kind: report.Last7Days}
	if err := ec.Export(context.Background(), sel, finance.FormatCSV, nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	if reports.lastRange.Start.String() != "2024-01-08" || reports.lastRange.End.String() != "2024-01-15" {
		t.Fatalf("export used wrong range: %v", reports.lastRange)
	}
	if sink.name != "transactions_2024-01-08_2024-01-15.csv" {
		t.Fatalf("wrong filename: %q", sink.name)
	}
	if sink.contentType != "text/csv" {
		t.Fatalf("wrong content type: %q", sink.contentType)
	}
	if sink.body.String() != "id,amount\n1,2.50\n" {
		t.Fatalf("body not streamed through: %q", sink.body.String())
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	reports := &stubReports{}
	sink := &recordingSink{}
	ec := NewExportController(reports, sink, nil)

	err := ec.Export(context.Background(), report.Selection{Kind: report.AllTime}, finance.ReportFormat("xlsx"), nil)
	if !finance.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if reports.calls != 0 {
		t.Fatalf("invalid format must not reach the backend")
	}
}

func TestExportFailureLeavesSinkUntouched(t *testing.T) {
	reports := &stubReports{err: &finance.NetworkError{Op: "download report", Err: errors.New("boom")}}
	sink := &recordingSink{}
	ec := NewExportController(reports, sink, nil)

	if err := ec.Export(context.Background(), report.Selection{Kind: report.AllTime}, finance.FormatCSV, nil); err == nil {
		t.Fatalf("expected error")
	}
	if sink.delivered != 0 {
		t.Fatalf("failed download must not deliver anything")
	}
}

func TestExportPerCallSinkOverridesDefault(t *testing.T) {
	reports := &stubReports{body: "data"}
	fallback := &recordingSink{}
	override := &recordingSink{}
	ec := NewExportController(reports, fallback, nil)

	if err := ec.Export(context.Background(), report.Selection{Kind: report.AllTime}, finance.FormatPDF, override); err != nil {
		t.Fatalf("export: %v", err)
	}
	if fallback.delivered != 0 || override.delivered != 1 {
		t.Fatalf("per-call sink ignored: fallback=%d override=%d", fallback.delivered, override.delivered)
	}
	if override.contentType != "application/pdf" {
		t.Fatalf("wrong content type: %q", override.contentType)
	}
}

func TestExportWithoutSinkFails(t *testing.T) {
	ec := NewExportController(&stubReports{body: "data"}, nil, nil)
	if err := ec.Export(context.Background(), report.Selection{Kind: report.AllTime}, finance.FormatCSV, nil); err == nil {
		t.Fatalf("expected error when no sink is configured")
	}
}
