package services

import (
	"context"
	"sync"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
)

const (
	saveCategoryFallback   = "Failed to save category. Please try again."
	deleteCategoryFallback = "Failed to delete category. Please try again."
)

// CategoryBackend is the slice of the backend the category controller
// needs.
type CategoryBackend interface {
	finance.CategoryLister
	finance.CategoryWriter
}

// CategoryController manages the category list and its mutations.
// Default categories are protected locally: edits and deletes against
// them are rejected before any request is made.
type CategoryController struct {
	backend CategoryBackend
	logger  *log.Logger

	mu            sync.Mutex
	categories    []core.Category
	form          FormState
	pendingDelete *core.Category
}

func NewCategoryController(backend CategoryBackend, logger *log.Logger) *CategoryController {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryController{
		backend: backend,
		logger:  logger.WithComponent(log.ComponentCategory),
	}
}

// Refresh reloads the category list from the backend.
func (c *CategoryController) Refresh(ctx context.Context) ([]core.Category, error) {
	cats, err := c.backend.ListCategories(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "Category list failed", log.FieldError, err)
		return c.Categories(), err
	}
	c.mu.Lock()
	c.categories = cats
	c.mu.Unlock()
	return cats, nil
}

// Categories returns the last loaded list.
func (c *CategoryController) Categories() []core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Form returns the category form state.
func (c *CategoryController) Form() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// OpenForm opens the category form, optionally editing an existing one.
// Default categories cannot be edited.
func (c *CategoryController) OpenForm(cat *core.Category) error {
	if cat != nil && cat.IsDefault {
		return &finance.ValidationError{Detail: core.ErrDefaultCategory.Error()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{Open: true}
	if cat != nil {
		c.form.EditingID = cat.ID
	}
	return nil
}

// CloseForm discards the category form.
func (c *CategoryController) CloseForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{}
}

// Create submits a new category and refreshes the list on success.
func (c *CategoryController) Create(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		verr := &finance.ValidationError{Detail: err.Error()}
		c.failForm(verr, saveCategoryFallback)
		return core.Category{}, verr
	}
	cat, err := c.backend.CreateCategory(ctx, in)
	if err != nil {
		c.failForm(err, saveCategoryFallback)
		return core.Category{}, err
	}
	c.logger.InfoContext(ctx, "Category created",
		log.FieldOperation, log.OpCreate,
		log.FieldCategoryID, cat.ID)
	c.CloseForm()
	_, _ = c.Refresh(ctx)
	return cat, nil
}

// Update submits changes to a non-default category.
func (c *CategoryController) Update(ctx context.Context, id int64, in core.CategoryInput) (core.Category, error) {
	if err := c.requireEditable(id); err != nil {
		c.failForm(err, saveCategoryFallback)
		return core.Category{}, err
	}
	if err := in.Validate(); err != nil {
		verr := &finance.ValidationError{Detail: err.Error()}
		c.failForm(verr, saveCategoryFallback)
		return core.Category{}, verr
	}
	cat, err := c.backend.UpdateCategory(ctx, id, in)
	if err != nil {
		c.failForm(err, saveCategoryFallback)
		if finance.IsNotFound(err) {
			_, _ = c.Refresh(ctx)
		}
		return core.Category{}, err
	}
	c.logger.InfoContext(ctx, "Category updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldCategoryID, cat.ID)
	c.CloseForm()
	_, _ = c.Refresh(ctx)
	return cat, nil
}

// RequestDelete stages a category deletion; default categories are
// rejected immediately.
func (c *CategoryController) RequestDelete(cat core.Category) error {
	if cat.IsDefault {
		return &finance.ValidationError{Detail: core.ErrDefaultCategory.Error()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	staged := cat
	c.pendingDelete = &staged
	return nil
}

// PendingDelete returns the category awaiting confirmation, if any.
func (c *CategoryController) PendingDelete() *core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingDelete == nil {
		return nil
	}
	cat := *c.pendingDelete
	return &cat
}

// CancelDelete discards the staged deletion.
func (c *CategoryController) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = nil
}

// ConfirmDelete issues the staged category deletion.
func (c *CategoryController) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	staged := c.pendingDelete
	c.pendingDelete = nil
	c.mu.Unlock()
	if staged == nil {
		return nil
	}

	if err := c.backend.DeleteCategory(ctx, staged.ID); err != nil {
		c.failForm(err, deleteCategoryFallback)
		if finance.IsNotFound(err) {
			_, _ = c.Refresh(ctx)
		}
		return err
	}
	c.logger.InfoContext(ctx, "Category deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldCategoryID, staged.ID)
	_, _ = c.Refresh(ctx)
	return nil
}

func (c *CategoryController) requireEditable(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.categories {
		if cat.ID == id && cat.IsDefault {
			return &finance.ValidationError{Detail: core.ErrDefaultCategory.Error()}
		}
	}
	return nil
}

func (c *CategoryController) failForm(err error, fallback string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Open = true
	c.form.Error = finance.UserMessage(err, fallback)
}
