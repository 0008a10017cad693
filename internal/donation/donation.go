package donation

import (
	"math"
	"strings"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCard Method = "card"
	MethodBank Method = "bank"
)

var Methods = []Method{MethodCard, MethodBank}

func ParseMethod(v string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(v))); m {
	case MethodCard, MethodBank:
		return m, nil
	default:
		return "", ErrUnknownMethod
	}
}

// Attempt statuses as kept in the ledger.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

// FormData is the state of one donation form.
type FormData struct {
	AmountChosen int64 // minor units, 0 means none
	Currency     string
	Payment      Method
	LoginEmail   string
	IsAnonymous  bool
	Recurring    bool
	TaxDeduction bool
}

var (
	ErrMethodDisabled      = internal.ErrPaymentMethodDisabled
	ErrUnknownMethod       = internal.NewValidationError("Unknown payment method", internal.ErrCodeInvalidOption)
	ErrInvalidClientSecret = internal.ErrInvalidClientSecret
	ErrInvalidSignature    = internal.ErrInvalidSignature
	ErrSessionFailed       = internal.NewExternalError("Payment session could not be created", internal.ErrCodePaymentSessionFailed, nil)
	ErrInvalidAmount       = internal.NewValidationFieldError("amount", "Amount must be a positive number", internal.ErrCodeInvalidAmount)
	ErrFlowNotFound        = internal.NewNotFoundError("Donation flow not found", "FLOW_NOT_FOUND")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ParseAmount converts a major-unit amount such as "12.34" into minor units.
// An empty string means no amount.
func ParseAmount(v string) (int64, error) {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
	if v == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) || minor.GreaterThan(maxMinor) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a major-unit decimal string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
