package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date (year, month, day) with no time-of-day part.
	Date struct {
		time.Time
	}

	// CostRecordInput is a cost entry as supplied by the caller, before the
	// store assigns an id.
	CostRecordInput struct {
		Date        Date            `json:"date"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Description string          `json:"description,omitempty"`
	}

	// CostRecord is a stored cost entry. The id is assigned on creation and
	// stable for the record's lifetime.
	CostRecord struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Description string          `json:"description,omitempty"`
	}
)

var (
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidCurrency = fmt.Errorf("%w: invalid currency code", ErrValidation)
	ErrEmptyCategory   = fmt.Errorf("%w: empty category", ErrValidation)
	ErrDescriptionLong = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day. Out-of-range components are
// normalized by time.Date; use DateOf to reject them instead.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf creates a Date and fails if the components do not name a real
// calendar date (e.g. February 30th).
func DateOf(year, month, day int) (Date, error) {
	d := NewDate(year, month, day)
	y, m, dd := d.Date()
	if y != year || int(m) != month || dd != day {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidCurrencyCode reports whether s looks like an ISO currency code:
// exactly three uppercase ASCII letters.
func ValidCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func (in CostRecordInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !ValidCurrencyCode(in.Currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, in.Currency)
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if len(in.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

// Input returns the record's fields without the store-assigned id, for
// export and re-import.
func (r CostRecord) Input() CostRecordInput {
	return CostRecordInput{
		Date:        r.Date,
		Category:    r.Category,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
	}
}
