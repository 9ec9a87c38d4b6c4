package core

import (
	"regexp"
	"strings"
	"time"
)

const (
	TypeIncome  TxType = "income"
	TypeExpense TxType = "expense"
)

type (
	// TxType is the transaction kind. Only income and expense exist; there
	// are no transfers or splits.
	TxType string

	// Date is a calendar date with no time component. It marshals as
	// YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Money is an amount in integer cents. Amounts are always positive.
	Money struct {
		Cents int64
	}

	// User is a registered account. PasswordHash never crosses the API
	// boundary; handlers expose Public() instead.
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
	}

	// PublicUser is the caller-visible projection of a User.
	PublicUser struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// Transaction is a single income or expense row owned by one user.
	Transaction struct {
		ID          int64  `json:"id"`
		UserID      int64  `json:"user_id"`
		Type        TxType `json:"type"`
		Category    string `json:"category"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"tx_date"`
		Description string `json:"description"`
	}
)

const dateLayout = "2006-01-02"

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Valid reports whether t is one of the two known transaction types.
func (t TxType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, NewValidationError("tx_date must be a valid date in YYYY-MM-DD format")
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// YearMonth returns the YYYY-MM period the date falls in.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return NewValidationError("tx_date is required")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Public strips the password hash from a User.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ValidateName checks the display-name schema (2-100 chars).
func ValidateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 2 || n > 100 {
		return NewValidationError("name must be between 2 and 100 characters")
	}
	return nil
}

// ValidateEmail checks the email schema (valid format, at most 150 chars).
// Emails are stored case-sensitively; no normalization happens here.
func ValidateEmail(email string) error {
	if email == "" || len(email) > 150 {
		return NewValidationError("email must be a valid address of at most 150 characters")
	}
	if !emailRx.MatchString(email) {
		return NewValidationError("email must be a valid address")
	}
	return nil
}

// ValidatePassword checks the password schema (6-100 chars).
func ValidatePassword(password string) error {
	if len(password) < 6 || len(password) > 100 {
		return NewValidationError("password must be between 6 and 100 characters")
	}
	return nil
}

// Validate checks the full transaction schema. Used both for freshly parsed
// input and for merged records before a partial update is persisted.
func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return NewValidationError("type must be either income or expense")
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if tx.Date.IsZero() {
		return NewValidationError("tx_date is required")
	}
	if n := len([]rune(tx.Category)); n < 1 || n > 100 {
		return NewValidationError("category must be between 1 and 100 characters")
	}
	if len([]rune(tx.Description)) > 255 {
		return NewValidationError("description must be at most 255 characters")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return NewValidationError("amount must be a positive number")
	}
	return nil
}
