package services

import (
	"context"
	"sync"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
)

// Fallback messages shown when the backend gives no detail.
const (
	saveTransactionFallback   = "Failed to save transaction. Please check your input and try again."
	deleteTransactionFallback = "Failed to delete transaction. Please try again."
)

// FormState tracks the transaction edit form: whether it is open, which
// transaction it edits (0 for create), and the inline error shown when a
// submission was rejected.
type FormState struct {
	Open      bool
	EditingID int64
	Error     string
}

// MutationController performs transaction create/update/delete against
// the backend. Successful mutations close the form and refresh the query
// controller with the currently active filter; failures keep the form
// open with the backend message so the user can correct the input.
type MutationController struct {
	writer     finance.TransactionWriter
	categories finance.CategoryLister
	query      *QueryController
	logger     *log.Logger

	mu            sync.Mutex
	form          FormState
	pendingDelete *core.Transaction
}

func NewMutationController(writer finance.TransactionWriter, categories finance.CategoryLister, query *QueryController, logger *log.Logger) *MutationController {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MutationController{
		writer:     writer,
		categories: categories,
		query:      query,
		logger:     logger.WithComponent(log.ComponentMutation),
	}
}

// OpenForm opens the edit form, for an existing transaction or (nil) a
// new one.
func (m *MutationController) OpenForm(tx *core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = FormState{Open: true}
	if tx != nil {
		m.form.EditingID = tx.ID
	}
}

// CloseForm discards the form and any inline error.
func (m *MutationController) CloseForm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = FormState{}
}

// Form returns the current form state.
func (m *MutationController) Form() FormState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

// Create validates and submits a new transaction.
func (m *MutationController) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := m.validate(ctx, in); err != nil {
		m.failForm(err, saveTransactionFallback)
		return core.Transaction{}, err
	}
	tx, err := m.writer.CreateTransaction(ctx, in)
	if err != nil {
		m.failForm(err, saveTransactionFallback)
		return core.Transaction{}, err
	}
	m.logger.InfoContext(ctx, "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTxID, tx.ID,
		log.FieldAmount, core.FormatAmount(tx.Amount))
	m.finishMutation(ctx)
	return tx, nil
}

// Update validates and submits changes to an existing transaction.
func (m *MutationController) Update(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	if err := m.validate(ctx, in); err != nil {
		m.failForm(err, saveTransactionFallback)
		return core.Transaction{}, err
	}
	tx, err := m.writer.UpdateTransaction(ctx, id, in)
	if err != nil {
		m.failForm(err, saveTransactionFallback)
		if finance.IsNotFound(err) {
			// The transaction vanished under us; reconcile the list.
			_, _ = m.query.Refresh(ctx)
		}
		return core.Transaction{}, err
	}
	m.logger.InfoContext(ctx, "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldTxID, tx.ID)
	m.finishMutation(ctx)
	return tx, nil
}

// RequestDelete stages a transaction for deletion. No request is issued
// until ConfirmDelete.
func (m *MutationController) RequestDelete(tx core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	staged := tx
	m.pendingDelete = &staged
}

// PendingDelete returns the transaction awaiting confirmation, nil when
// none is staged.
func (m *MutationController) PendingDelete() *core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingDelete == nil {
		return nil
	}
	tx := *m.pendingDelete
	return &tx
}

// CancelDelete discards the staged deletion without any backend call.
func (m *MutationController) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingDelete = nil
}

// ConfirmDelete issues the staged deletion. The confirmation dialog is
// dismissed whether the call succeeds or fails.
func (m *MutationController) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	staged := m.pendingDelete
	m.pendingDelete = nil
	m.mu.Unlock()
	if staged == nil {
		return nil
	}

	if err := m.writer.DeleteTransaction(ctx, staged.ID); err != nil {
		m.failForm(err, deleteTransactionFallback)
		if finance.IsNotFound(err) {
			_, _ = m.query.Refresh(ctx)
		}
		return err
	}
	m.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTxID, staged.ID)
	m.finishMutation(ctx)
	return nil
}

// validate applies the client-side checks that run before any network
// dispatch: field validation plus the category partition rule.
func (m *MutationController) validate(ctx context.Context, in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return &finance.ValidationError{Detail: err.Error()}
	}
	cats, err := m.categories.ListCategories(ctx)
	if err != nil {
		// Cannot verify the partition; let the backend be the authority.
		m.logger.WarnContext(ctx, "Category check skipped", log.FieldError, err)
		return nil
	}
	if err := core.ValidateCategory(in, cats); err != nil {
		return &finance.ValidationError{Detail: err.Error()}
	}
	return nil
}

func (m *MutationController) finishMutation(ctx context.Context) {
	m.CloseForm()
	if _, err := m.query.Refresh(ctx); err != nil {
		m.logger.WarnContext(ctx, "Post-mutation refresh failed", log.FieldError, err)
	}
}

func (m *MutationController) failForm(err error, fallback string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.Open = true
	m.form.Error = finance.UserMessage(err, fallback)
}
