package expense

import (
	"github.com/frahmantamala/campaign-portal/internal/form"
	"github.com/go-playground/validator/v10"
)

// Form is the expense record form as the browser submits it.
type Form struct {
	Type         string `form:"type" validate:"required,expense_type"`
	Status       string `form:"status" validate:"required,expense_status"`
	Currency     string `form:"currency" validate:"required,currency"`
	Money        string `form:"amount" validate:"required,money"`
	Description  string `form:"description" validate:"max=1000"`
	VaultID      string `form:"vaultId"`
	DocumentID   string `form:"documentId" validate:"omitempty,uuid"`
	ApprovedByID string `form:"approvedById" validate:"omitempty,uuid"`
	SpentAt      string `form:"spentAt" validate:"required,datetime=2006-01-02"`
	Deleted      bool   `form:"deleted"`
}

// DefaultForm is what a new expense starts with.
func DefaultForm(vaultID string) Form {
	return Form{
		Type:     string(TypeNone),
		Status:   string(StatusPending),
		Currency: string(CurrencyBGN),
		Money:    FromMinor(0),
		VaultID:  vaultID,
	}
}

// FormFromExpense pre-populates the form from a stored record.
func FormFromExpense(e *Expense) Form {
	f := Form{
		Type:        string(e.Type),
		Status:      string(e.Status),
		Currency:    string(e.Currency),
		Money:       FromMinor(e.Amount),
		Description: e.Description,
		VaultID:     e.VaultID,
		SpentAt:     DateOnly(e.SpentAt),
		Deleted:     e.Deleted,
	}
	if e.DocumentID != nil {
		f.DocumentID = *e.DocumentID
	}
	if e.ApprovedByID != nil {
		f.ApprovedByID = *e.ApprovedByID
	}
	return f
}

// ToInput converts the form into the transmitted payload. Empty optional
// references become null, bare dates get a midnight UTC time and the
// amount is converted to minor units.
func (f Form) ToInput() (Input, error) {
	amount, err := ToMinor(f.Money)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Type:         Type(f.Type),
		Status:       Status(f.Status),
		Currency:     Currency(f.Currency),
		Amount:       amount,
		Description:  f.Description,
		VaultID:      f.VaultID,
		DocumentID:   NullIfEmpty(f.DocumentID),
		ApprovedByID: NullIfEmpty(f.ApprovedByID),
		SpentAt:      NormalizeSpentAt(f.SpentAt),
		Deleted:      f.Deleted,
	}, nil
}

// RegisterValidations adds the expense enumerations and money format to binder.
func RegisterValidations(binder *form.Binder) error {
	rules := map[string]func(string) bool{
		"expense_type":   ValidType,
		"expense_status": ValidStatus,
		"currency":       ValidCurrency,
		"money":          ValidMoney,
	}
	for tag, ok := range rules {
		check := ok
		if err := binder.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}
