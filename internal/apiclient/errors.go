package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/frahmantamala/campaign-portal/internal"
)

// constraintError is one entry of the backend's validation response.
type constraintError struct {
	Property    string            `json:"property"`
	Constraints map[string]string `json:"constraints"`
}

var errNotFound = internal.NewNotFoundError("Resource not found", "NOT_FOUND")

type errorBody struct {
	Message json.RawMessage `json:"message"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if details, ok := parseConstraints(raw); ok {
			return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
				WithDetails(details)
		}
		return internal.NewValidationError(messageOf(raw), internal.ErrCodeValidationFailed)
	case http.StatusUnauthorized:
		return internal.ErrInvalidCredentials
	case http.StatusForbidden:
		return internal.ErrInsufficientRole
	case http.StatusNotFound:
		return errNotFound
	default:
		return internal.NewExternalError(
			fmt.Sprintf("backend returned status %d", resp.StatusCode),
			internal.ErrCodeRemoteUnavailable, nil)
	}
}

// parseConstraints turns {"message":[{"property","constraints"}]} into one
// ValidationError per constraint code.
func parseConstraints(raw []byte) (internal.ValidationErrors, bool) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Message) == 0 {
		return internal.ValidationErrors{}, false
	}
	var items []constraintError
	if err := json.Unmarshal(body.Message, &items); err != nil || len(items) == 0 {
		return internal.ValidationErrors{}, false
	}

	var out internal.ValidationErrors
	for _, item := range items {
		codes := make([]string, 0, len(item.Constraints))
		for code := range item.Constraints {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			out.Errors = append(out.Errors, internal.ValidationError{
				Field:   item.Property,
				Message: item.Constraints[code],
				Code:    code,
			})
		}
	}
	return out, true
}

func messageOf(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return "Validation failed"
}
