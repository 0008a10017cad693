package i18n

import "sort"

var constraintKeys = map[string]string{
	"isEmail":      "validation:email",
	"isNotEmpty":   "validation:required",
	"isDefined":    "validation:required",
	"maxLength":    "validation:max-length",
	"minLength":    "validation:min-length",
	"isUuid":       "validation:uuid",
	"isEnum":       "validation:invalid-option",
	"isIn":         "validation:invalid-option",
	"min":          "validation:min",
	"isPositive":   "validation:min",
	"isNumber":     "validation:number",
	"isInt":        "validation:number",
	"isDate":       "validation:date",
	"isDateString": "validation:date",
}

var tagKeys = map[string]string{
	"required":       "validation:required",
	"required_if":    "validation:required",
	"email":          "validation:email",
	"oneof":          "validation:invalid-option",
	"expense_type":   "validation:invalid-option",
	"expense_status": "validation:invalid-option",
	"currency":       "validation:invalid-option",
	"max":            "validation:max-length",
	"min":            "validation:min",
	"gte":            "validation:min",
	"gt":             "validation:min",
	"uuid":           "validation:uuid",
	"uuid4":          "validation:uuid",
	"numeric":        "validation:number",
	"number":         "validation:number",
	"money":          "validation:number",
	"datetime":       "validation:date",
}

// MatchValidator maps the constraint codes a remote service reported for a
// field to a message key. The first known code in name order wins.
func MatchValidator(constraints map[string]string) string {
	codes := make([]string, 0, len(constraints))
	for code := range constraints {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if key, ok := constraintKeys[code]; ok {
			return key
		}
	}
	return "validation:invalid"
}

// MatchConstraint maps a single constraint code to a message key.
func MatchConstraint(code string) string {
	return MatchValidator(map[string]string{code: ""})
}

// MatchTag maps a validator tag to a message key.
func MatchTag(tag string) string {
	if key, ok := tagKeys[tag]; ok {
		return key
	}
	return "validation:invalid"
}
