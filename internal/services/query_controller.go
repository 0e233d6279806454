// Package services provides the controllers that orchestrate backend
// calls and hold the view state the UI renders.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
	"finview/internal/report"
)

// ViewState is the transaction list plus its matching aggregate balance.
// The two always come from the same resolved range: they update together
// or not at all.
type ViewState struct {
	Transactions []core.Transaction
	Balance      decimal.Decimal
	Range        core.DateRange
}

// RangeOverride adjusts the selection-derived range per field. A nil
// field keeps the resolved bound; a non-nil field replaces it, where an
// explicitly empty Date forces that side unbounded.
type RangeOverride struct {
	Start *core.Date
	End   *core.Date
}

// QueryController resolves the active filter, fetches the transaction
// list and aggregate balance together, and retains only the most
// recently initiated refresh's result.
type QueryController struct {
	lister  finance.TransactionLister
	reports finance.ReportReader
	logger  *log.Logger
	now     func() time.Time

	mu        sync.Mutex
	selection report.Selection
	override  *RangeOverride
	state     ViewState
	lastErr   error
	issued    uint64
	applied   uint64
}

func NewQueryController(lister finance.TransactionLister, reports finance.ReportReader, logger *log.Logger) *QueryController {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &QueryController{
		lister:  lister,
		reports: reports,
		logger:  logger.WithComponent(log.ComponentQuery),
		now:     time.Now,
		selection: report.Selection{
			Kind:         report.AllTime,
			FYStartMonth: report.DefaultFYStartMonth,
		},
	}
}

// SetSelection replaces the active quick-range selection. The caller
// triggers Refresh separately.
func (c *QueryController) SetSelection(sel report.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = sel
}

// SetOverride installs or clears (nil) the explicit range override.
func (c *QueryController) SetOverride(o *RangeOverride) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = o
}

// Selection returns the active quick-range selection.
func (c *QueryController) Selection() report.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// ActiveRange resolves the current selection and applies the override.
// Mutation controllers use it so post-mutation refreshes keep the filter
// the user is looking at.
func (c *QueryController) ActiveRange() core.DateRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRangeLocked()
}

func (c *QueryController) activeRangeLocked() core.DateRange {
	r := report.Resolve(c.selection, c.now())
	if o := c.override; o != nil {
		if o.Start != nil {
			r.Start = *o.Start
		}
		if o.End != nil {
			r.End = *o.End
		}
	}
	return r
}

// State returns the last successfully applied view state.
func (c *QueryController) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error of the most recent refresh, nil after a
// successful one. Prior data stays in State regardless.
func (c *QueryController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Refresh fetches the transaction list and aggregate balance for the
// active range, concurrently and with identical parameters. Results
// apply atomically; when refreshes overlap, only the latest-initiated
// one may win, so a slow earlier request can never clobber newer data.
func (c *QueryController) Refresh(ctx context.Context) (ViewState, error) {
	c.mu.Lock()
	c.issued++
	token := c.issued
	r := c.activeRangeLocked()
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Refreshing view",
		log.FieldSequence, token,
		log.FieldRangeStart, r.Start.String(),
		log.FieldRangeEnd, r.End.String())

	var (
		txs []core.Transaction
		bal core.Balance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = c.lister.ListTransactions(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		bal, err = c.reports.AggregateBalance(gctx, r)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if token < c.applied {
		// A refresh initiated after this one already completed; its
		// result stands and this one is discarded, error or not.
		return c.state, nil
	}
	c.applied = token
	if err != nil {
		c.lastErr = err
		c.logger.ErrorContext(ctx, "Refresh failed",
			log.FieldSequence, token,
			log.FieldError, err)
		return c.state, err
	}
	c.lastErr = nil
	c.state = ViewState{Transactions: txs, Balance: bal.Balance, Range: r}
	return c.state, nil
}
