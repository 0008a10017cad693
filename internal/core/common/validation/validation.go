package validation

import (
	"fmt"
	"slices"
	"time"

	errors "github.com/frahmantamala/campaign-portal/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

// Codes are the constraint names the remote API reports, so local and
// remote validation failures map to the same messages.
const (
	CodeRequired  = "isNotEmpty"
	CodeEnum      = "isEnum"
	CodeMin       = "min"
	CodeMaxLength = "maxLength"
	CodeDate      = "isDateString"
)

func fieldError(field, message, code string) *errors.AppError {
	return errors.NewValidationFieldError(field, message, errors.ErrorCode(code))
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return fieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), CodeRequired)
			}
		case *string:
			if v == nil || *v == "" {
				return fieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), CodeRequired)
			}
		}
		return nil
	})
	return fv
}

// OneOf accepts string values from allowed only.
func (fv *FieldValidator) OneOf(allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v := fmt.Sprint(value)
		if !slices.Contains(allowed, v) {
			return fieldError(fv.FieldName, fmt.Sprintf("%s must be one of %v", fv.FieldName, allowed), CodeEnum)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinInt(min int64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(int64); ok && v < min {
			return fieldError(fv.FieldName, fmt.Sprintf("%s must be at least %d", fv.FieldName, min), CodeMin)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len([]rune(v)) > max {
			return fieldError(fv.FieldName, fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), CodeMaxLength)
		}
		return nil
	})
	return fv
}

// ISODate accepts RFC 3339 timestamps. Empty strings pass; combine with
// Required when the value is mandatory.
func (fv *FieldValidator) ISODate() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			return fieldError(fv.FieldName, fmt.Sprintf("%s must be an ISO date", fv.FieldName), CodeDate)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details := appErr.FieldErrors(); len(details) > 0 {
				validationErrors = append(validationErrors, details...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}
