package core

// FilterByIncome returns the categories whose income flag matches, in input
// order. The result is never nil, so callers can range over it directly.
func FilterByIncome(categories []Category, isIncome bool) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.IsIncome == isIncome {
			out = append(out, c)
		}
	}
	return out
}

// ValidateCategory checks that the input's category exists and belongs to
// the same income/expense partition as the transaction. It runs before
// dispatch so a mismatched select submission never reaches the backend.
func ValidateCategory(in TransactionInput, categories []Category) error {
	for _, c := range categories {
		if c.ID != in.CategoryID {
			continue
		}
		if c.IsIncome != in.IsIncome {
			return ErrCategoryMismatch
		}
		return nil
	}
	return ErrUnknownCategory
}
