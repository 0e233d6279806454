package http

import (
	"net/http"
	"strconv"
	"strings"

	"finview/internal/core"
	"finview/internal/report"
	"finview/internal/services"
)

// parseSelection reads the filter controls from the query string: the
// quick-range kind plus optional explicit date overrides. For the custom
// kind the dates are the selection itself; for every other kind a
// present start/end parameter overrides that bound, where an empty value
// clears it.
func parseSelection(r *http.Request, fyStartMonth int) (report.Selection, *services.RangeOverride) {
	q := r.URL.Query()

	kind := report.Kind(strings.TrimSpace(q.Get("range")))
	if kind == "" {
		kind = report.AllTime
	}
	sel := report.Selection{Kind: kind, FYStartMonth: fyStartMonth}

	if kind == report.Custom {
		sel.CustomStart = parseDateParam(q.Get("start"))
		sel.CustomEnd = parseDateParam(q.Get("end"))
		return sel, nil
	}

	var override *services.RangeOverride
	if q.Has("start") {
		d := parseDateParam(q.Get("start"))
		override = &services.RangeOverride{Start: &d}
	}
	if q.Has("end") {
		d := parseDateParam(q.Get("end"))
		if override == nil {
			override = &services.RangeOverride{}
		}
		override.End = &d
	}
	return sel, override
}

// parseDateParam parses a YYYY-MM-DD value, treating blank or malformed
// input as "no date".
func parseDateParam(s string) core.Date {
	d, err := core.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return core.Date{}
	}
	return d
}

// parseTransactionForm builds the input from posted form values. Fields
// that fail to parse are left zero so validation reports them.
func parseTransactionForm(r *http.Request) core.TransactionInput {
	_ = r.ParseForm()

	var in core.TransactionInput
	if amt, err := core.ParseAmount(r.PostFormValue("amount")); err == nil {
		in.Amount = amt
	}
	if id, err := strconv.ParseInt(r.PostFormValue("category_id"), 10, 64); err == nil {
		in.CategoryID = id
	}
	in.Description = strings.TrimSpace(r.PostFormValue("description"))
	in.IsIncome = r.PostFormValue("type") == "income"
	in.Date = parseDateParam(r.PostFormValue("date"))
	return in
}

func parseCategoryForm(r *http.Request) core.CategoryInput {
	_ = r.ParseForm()

	return core.CategoryInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		IsIncome:    r.PostFormValue("type") == "income",
	}
}

func pathID(vars map[string]string) int64 {
	id, _ := strconv.ParseInt(vars["id"], 10, 64)
	return id
}
