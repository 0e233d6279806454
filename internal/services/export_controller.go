package services

import (
	"context"
	"fmt"
	"time"

	"finview/internal/core"
	"finview/internal/download"
	"finview/internal/finance"
	"finview/internal/log"
	"finview/internal/report"
)

// ExportController resolves a report selection, fetches the rendered
// file from the backend, and hands it to a download sink. It shares no
// state with the other controllers, so a long export never blocks a
// refresh.
type ExportController struct {
	reports finance.ReportReader
	sink    download.Sink
	logger  *log.Logger
	now     func() time.Time
}

// NewExportController creates the controller. sink is the default
// delivery target and may be overridden per call.
func NewExportController(reports finance.ReportReader, sink download.Sink, logger *log.Logger) *ExportController {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportController{
		reports: reports,
		sink:    sink,
		logger:  logger.WithComponent(log.ComponentExport),
		now:     time.Now,
	}
}

// Filename names an export after its range, using "all" for an
// unbounded side: transactions_2024-01-01_2024-01-31.csv.
func Filename(r core.DateRange, format finance.ReportFormat) string {
	start, end := "all", "all"
	if !r.Start.IsZero() {
		start = r.Start.String()
	}
	if !r.End.IsZero() {
		end = r.End.String()
	}
	return fmt.Sprintf("transactions_%s_%s.%s", start, end, format)
}

// Export resolves the selection, downloads the report, and delivers it
// through sink (or the default sink when nil).
func (e *ExportController) Export(ctx context.Context, sel report.Selection, format finance.ReportFormat, sink download.Sink) error {
	if sink == nil {
		sink = e.sink
	}
	if sink == nil {
		return fmt.Errorf("no download sink configured")
	}
	if !format.IsValid() {
		return &finance.ValidationError{Detail: fmt.Sprintf("unsupported report format %q", format)}
	}

	r := report.Resolve(sel, e.now())
	body, err := e.reports.DownloadReport(ctx, r, format)
	if err != nil {
		e.logger.ErrorContext(ctx, "Report download failed",
			log.FieldFormat, format.String(),
			log.FieldRangeStart, r.Start.String(),
			log.FieldRangeEnd, r.End.String(),
			log.FieldError, err)
		return err
	}
	defer body.Close()

	name := Filename(r, format)
	if err := sink.Deliver(name, contentTypeFor(format), body); err != nil {
		e.logger.ErrorContext(ctx, "Report delivery failed",
			log.FieldFormat, format.String(),
			log.FieldError, err)
		return err
	}
	e.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, format.String(),
		log.FieldRangeStart, r.Start.String(),
		log.FieldRangeEnd, r.End.String())
	return nil
}

func contentTypeFor(format finance.ReportFormat) string {
	switch format {
	case finance.FormatCSV:
		return "text/csv"
	case finance.FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
