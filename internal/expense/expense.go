package expense

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/shopspring/decimal"
)

// Mode tells the expense form whether it creates a record or edits one.
// It is resolved once when the page is entered.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func ResolveMode(id string) Mode {
	if strings.TrimSpace(id) == "" {
		return ModeCreate
	}
	return ModeEdit
}

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

type Type string

const (
	TypeNone           Type = "none"
	TypeInternal       Type = "internal"
	TypeOperating      Type = "operating"
	TypeAdministrative Type = "administrative"
	TypeMedical        Type = "medical"
	TypeServices       Type = "services"
	TypeGroceries      Type = "groceries"
	TypeTransport      Type = "transport"
	TypeAccommodation  Type = "accommodation"
	TypeShipping       Type = "shipping"
	TypeUtility        Type = "utility"
	TypeRental         Type = "rental"
	TypeLegal          Type = "legal"
	TypeBank           Type = "bank"
	TypeAdvertising    Type = "advertising"
	TypeOther          Type = "other"
)

var Types = []Type{
	TypeNone, TypeInternal, TypeOperating, TypeAdministrative, TypeMedical, TypeServices,
	TypeGroceries, TypeTransport, TypeAccommodation, TypeShipping, TypeUtility, TypeRental,
	TypeLegal, TypeBank, TypeAdvertising, TypeOther,
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusCanceled Status = "canceled"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusCanceled}

type Currency string

const (
	CurrencyBGN Currency = "BGN"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

var Currencies = []Currency{CurrencyBGN, CurrencyEUR, CurrencyUSD}

func ValidType(v string) bool     { return slices.Contains(Types, Type(v)) }
func ValidStatus(v string) bool   { return slices.Contains(Statuses, Status(v)) }
func ValidCurrency(v string) bool { return slices.Contains(Currencies, Currency(v)) }

// Input is the payload sent when creating or updating an expense.
// Amount is in minor currency units.
type Input struct {
	Type         Type     `json:"type"`
	Status       Status   `json:"status"`
	Currency     Currency `json:"currency"`
	Amount       int64    `json:"amount"`
	Description  string   `json:"description"`
	VaultID      string   `json:"vaultId"`
	DocumentID   *string  `json:"documentId"`
	ApprovedByID *string  `json:"approvedById"`
	SpentAt      string   `json:"spentAt"`
	Deleted      bool     `json:"deleted"`
}

type Expense struct {
	ID string `json:"id"`
	Input
}

type File struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Mimetype  string `json:"mimetype"`
	ExpenseID string `json:"expenseId"`
}

// Upload is a staged file waiting to be attached to an expense.
type Upload struct {
	Filename string
	Mimetype string
	Data     []byte
}

// Total is the sum of the non-deleted expenses in one currency.
type Total struct {
	Currency Currency
	Amount   int64
}

func (t Total) Display() string {
	return FromMinor(t.Amount)
}

const moneyFactor = 100

// maxMinor is the largest amount, in minor units, an int64 can carry.
var maxMinor = decimal.NewFromInt(math.MaxInt64)

var ErrUploadFailed = internal.NewExternalError("Expense files could not be uploaded", internal.ErrCodeUploadFailed, nil)

// ToMinor converts a decimal UI amount such as "12.34" into minor units.
func ToMinor(money string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(money))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", money, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", money)
	}
	minor := d.Mul(decimal.NewFromInt(moneyFactor)).Round(0)
	if minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("amount %q is too large", money)
	}
	return minor.IntPart(), nil
}

// FromMinor renders minor units as a decimal UI amount, 1234 becomes "12.34".
func FromMinor(amount int64) string {
	return decimal.New(amount, 0).Div(decimal.NewFromInt(moneyFactor)).StringFixed(2)
}

// ValidMoney accepts non-negative decimals with at most two fraction digits.
func ValidMoney(money string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(money))
	if err != nil || d.IsNegative() {
		return false
	}
	if d.Shift(2).GreaterThan(maxMinor) {
		return false
	}
	return d.Equal(d.Round(2))
}

// NormalizeSpentAt turns a bare date into a UTC midnight timestamp.
func NormalizeSpentAt(v string) string {
	if len(v) == len("2006-01-02") {
		return v + "T00:00:00.000Z"
	}
	return v
}

// DateOnly returns the date part of a timestamp for a date input.
func DateOnly(v string) string {
	if len(v) >= len("2006-01-02") {
		return v[:len("2006-01-02")]
	}
	return v
}

// NullIfEmpty maps empty form values to a JSON null.
func NullIfEmpty(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func Totals(expenses []Expense) []Total {
	sums := map[Currency]int64{}
	for _, e := range expenses {
		if e.Deleted {
			continue
		}
		sums[e.Currency] += e.Amount
	}
	totals := make([]Total, 0, len(sums))
	for _, c := range Currencies {
		if amount, ok := sums[c]; ok {
			totals = append(totals, Total{Currency: c, Amount: amount})
			delete(sums, c)
		}
	}
	for c, amount := range sums {
		totals = append(totals, Total{Currency: c, Amount: amount})
	}
	return totals
}
