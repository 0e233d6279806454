package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
	"finview/internal/report"
	"finview/internal/services"
)

const loadTransactionsFallback = "Failed to load transactions. Please try again."

type indexData struct {
	Transactions      []core.Transaction
	Balance           string
	Range             core.DateRange
	ActiveKind        report.Kind
	Kinds             []report.Kind
	ExpenseCategories []core.Category
	IncomeCategories  []core.Category
	Form              services.FormState
	Editing           *core.Transaction
	Error             string
	Today             string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	sel, override := parseSelection(r, s.fyStartMonth)
	s.query.SetSelection(sel)
	s.query.SetOverride(override)

	state, err := s.query.Refresh(ctx)
	errMsg := ""
	if err != nil {
		errMsg = finance.UserMessage(err, loadTransactionsFallback)
	}

	cats, err := s.loadCategories(ctx)
	if err != nil && errMsg == "" {
		errMsg = finance.UserMessage(err, loadTransactionsFallback)
	}

	// Opening the form resets any inline error, so leave it alone when it
	// is already open for the same target (a failed submission re-render).
	var editing *core.Transaction
	switch {
	case q.Has("new"):
		if f := s.mutations.Form(); !f.Open || f.EditingID != 0 {
			s.mutations.OpenForm(nil)
		}
	case q.Has("edit"):
		if tx := findTransaction(state.Transactions, pathID(map[string]string{"id": q.Get("edit")})); tx != nil {
			if f := s.mutations.Form(); !f.Open || f.EditingID != tx.ID {
				s.mutations.OpenForm(tx)
			}
			editing = tx
		}
	}

	s.render(w, r, "index.html", indexData{
		Transactions:      state.Transactions,
		Balance:           core.FormatAmount(state.Balance),
		Range:             state.Range,
		ActiveKind:        sel.Kind,
		Kinds:             report.KnownKinds(),
		ExpenseCategories: core.FilterByIncome(cats, false),
		IncomeCategories:  core.FilterByIncome(cats, true),
		Form:              s.mutations.Form(),
		Editing:           editing,
		Error:             errMsg,
		Today:             time.Now().Format("2006-01-02"),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in := parseTransactionForm(r)
	if _, err := s.mutations.Create(r.Context(), in); err != nil {
		// The form keeps the message; re-render it on the index page.
		http.Redirect(w, r, "/?new", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := pathID(mux.Vars(r))
	in := parseTransactionForm(r)
	if _, err := s.mutations.Update(r.Context(), id, in); err != nil {
		http.Redirect(w, r, "/?edit="+mux.Vars(r)["id"], http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type confirmDeleteData struct {
	Title       string
	Detail      string
	ConfirmPath string
	CancelPath  string
}

func (s *Server) handleConfirmDeletePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(mux.Vars(r))

	tx := findTransaction(s.query.State().Transactions, id)
	if tx == nil {
		// The list may be stale; reconcile once before giving up.
		if state, err := s.query.Refresh(ctx); err == nil {
			tx = findTransaction(state.Transactions, id)
		}
	}
	if tx == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.mutations.RequestDelete(*tx)
	s.render(w, r, "confirm_delete.html", confirmDeleteData{
		Title:       "Delete transaction?",
		Detail:      core.FormatAmount(tx.Amount) + " " + tx.CategoryName + " on " + tx.Date.String(),
		ConfirmPath: r.URL.Path,
		CancelPath:  r.URL.Path + "/cancel",
	})
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(mux.Vars(r))

	// Restage if the pending deletion does not match this request.
	if staged := s.mutations.PendingDelete(); staged == nil || staged.ID != id {
		if tx := findTransaction(s.query.State().Transactions, id); tx != nil {
			s.mutations.RequestDelete(*tx)
		} else {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	_ = s.mutations.ConfirmDelete(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	s.mutations.CancelDelete()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template render failed",
			log.FieldRequestID, RequestID(r.Context()),
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func findTransaction(txs []core.Transaction, id int64) *core.Transaction {
	for i := range txs {
		if txs[i].ID == id {
			tx := txs[i]
			return &tx
		}
	}
	return nil
}
