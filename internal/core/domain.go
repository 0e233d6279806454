package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date without a time component. The zero value
	// means "no date" and is used for unbounded range endpoints.
	Date struct {
		time.Time
	}

	// DateRange bounds a transaction query. A zero Start or End leaves
	// that side unbounded.
	DateRange struct {
		Start Date
		End   Date
	}

	// Transaction as held by the backend. ID is backend-assigned and
	// immutable; the client only ever keeps a transient copy.
	Transaction struct {
		ID           int64
		Amount       decimal.Decimal
		CategoryID   int64
		CategoryName string
		Description  string
		IsIncome     bool
		Date         Date
	}

	// TransactionInput is the payload for create and update operations,
	// before the backend has assigned an ID.
	TransactionInput struct {
		Amount      decimal.Decimal
		CategoryID  int64
		Description string
		IsIncome    bool
		Date        Date
	}

	Category struct {
		ID          int64
		Name        string
		Description string
		IsIncome    bool
		IsDefault   bool
	}

	// CategoryInput is the payload for category create and update.
	CategoryInput struct {
		Name        string
		Description string
		IsIncome    bool
	}

	// Balance is the net sum (income minus expense) for a date range,
	// computed by the backend and consumed read-only.
	Balance struct {
		Balance decimal.Decimal
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidRange     = errors.New("start date after end date")
	ErrMissingCategory  = errors.New("missing category")
	ErrEmptyName        = errors.New("empty category name")
	ErrDescriptionLong  = errors.New("description too long (max 500 characters)")
	ErrNameLong         = errors.New("category name too long (max 100 characters)")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrCategoryMismatch = errors.New("category type mismatch")
	ErrDefaultCategory  = errors.New("default categories cannot be modified")
)

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Empty input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// IsEmpty reports whether the date is unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Bounded reports whether at least one side of the range is set.
func (r DateRange) Bounded() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End.Time) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether the given date falls inside the range.
// Unbounded sides always match; bounds are inclusive.
func (r DateRange) Contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start.Time) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End.Time) {
		return false
	}
	return true
}

func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if in.CategoryID == 0 {
		return ErrMissingCategory
	}
	if len(in.Description) > 500 {
		return ErrDescriptionLong
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if len(in.Name) > 100 {
		return ErrNameLong
	}
	if len(in.Description) > 500 {
		return ErrDescriptionLong
	}
	return nil
}
