package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/services"
)

const loadCategoriesFallback = "Failed to load categories. Please try again."

type categoriesData struct {
	Categories []core.Category
	Form       services.FormState
	Editing    *core.Category
	Error      string
}

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	cats, err := s.categories.Refresh(ctx)
	errMsg := ""
	if err != nil {
		errMsg = finance.UserMessage(err, loadCategoriesFallback)
	}

	// Keep an already-open form so a failed submission's error survives
	// the redirect back here.
	var editing *core.Category
	switch {
	case q.Has("new"):
		if f := s.categories.Form(); !f.Open || f.EditingID != 0 {
			_ = s.categories.OpenForm(nil)
		}
	case q.Has("edit"):
		if cat := findCategory(cats, pathID(map[string]string{"id": q.Get("edit")})); cat != nil {
			if f := s.categories.Form(); f.Open && f.EditingID == cat.ID {
				editing = cat
			} else if openErr := s.categories.OpenForm(cat); openErr == nil {
				editing = cat
			}
		}
	}

	s.render(w, r, "categories.html", categoriesData{
		Categories: cats,
		Form:       s.categories.Form(),
		Editing:    editing,
		Error:      errMsg,
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	in := parseCategoryForm(r)
	if _, err := s.categories.Create(r.Context(), in); err != nil {
		http.Redirect(w, r, "/categories?new", http.StatusSeeOther)
		return
	}
	s.catCache.Flush()
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(mux.Vars(r))
	in := parseCategoryForm(r)
	if _, err := s.categories.Update(r.Context(), id, in); err != nil {
		http.Redirect(w, r, "/categories?edit="+mux.Vars(r)["id"], http.StatusSeeOther)
		return
	}
	s.catCache.Flush()
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleConfirmDeleteCategoryPage(w http.ResponseWriter, r *http.Request) {
	id := pathID(mux.Vars(r))

	cat := findCategory(s.categories.Categories(), id)
	if cat == nil {
		if cats, err := s.categories.Refresh(r.Context()); err == nil {
			cat = findCategory(cats, id)
		}
	}
	if cat == nil {
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}
	if err := s.categories.RequestDelete(*cat); err != nil {
		// Default categories cannot be deleted.
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	s.render(w, r, "confirm_delete.html", confirmDeleteData{
		Title:       "Delete category?",
		Detail:      cat.Name,
		ConfirmPath: r.URL.Path,
		CancelPath:  r.URL.Path + "/cancel",
	})
}

func (s *Server) handleCancelDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.categories.CancelDelete()
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleConfirmDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(mux.Vars(r))

	if staged := s.categories.PendingDelete(); staged == nil || staged.ID != id {
		cat := findCategory(s.categories.Categories(), id)
		if cat == nil || s.categories.RequestDelete(*cat) != nil {
			http.Redirect(w, r, "/categories", http.StatusSeeOther)
			return
		}
	}
	if err := s.categories.ConfirmDelete(r.Context()); err == nil {
		s.catCache.Flush()
	}
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func findCategory(cats []core.Category, id int64) *core.Category {
	for i := range cats {
		if cats[i].ID == id {
			cat := cats[i]
			return &cat
		}
	}
	return nil
}
