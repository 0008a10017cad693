// Package form binds HTML form inputs to Go structs in both directions and
// carries the per-field error messages a template renders next to inputs.
package form

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/i18n"
	playform "github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

const DefaultMaxMemory = 32 << 20

type Translator interface {
	T(key string, args ...any) string
}

// State is what a template needs to render a form: the current input
// values, the error message per field and any uploaded files.
type State struct {
	Values url.Values
	Errors map[string]string
	files  map[string][]*multipart.FileHeader
}

func New() *State {
	return &State{
		Values: url.Values{},
		Errors: map[string]string{},
	}
}

func (s *State) Value(name string) string {
	return s.Values.Get(name)
}

func (s *State) Set(name, value string) {
	s.Values.Set(name, value)
}

// Checked reports whether a checkbox field was submitted as true.
func (s *State) Checked(name string) bool {
	v := strings.ToLower(s.Values.Get(name))
	return v == "true" || v == "on" || v == "1"
}

func (s *State) Error(name string) string {
	return s.Errors[name]
}

func (s *State) HasErrors() bool {
	return len(s.Errors) > 0
}

// SetFieldError records the first error for a field; later ones are ignored.
func (s *State) SetFieldError(field, message string) {
	if _, exists := s.Errors[field]; exists {
		return
	}
	s.Errors[field] = message
}

func (s *State) Files(name string) []*multipart.FileHeader {
	return s.files[name]
}

// ApplyFieldErrors maps server-reported validation errors onto fields. The
// error code is the constraint name reported by the server.
func (s *State) ApplyFieldErrors(errs []internal.ValidationError, tr Translator) {
	for _, fe := range errs {
		s.SetFieldError(fe.Field, tr.T(i18n.MatchConstraint(fe.Code)))
	}
}

// Binder decodes and encodes form structs and validates them with the
// `validate` struct tags. Field names come from the `form` tag.
type Binder struct {
	decoder  *playform.Decoder
	encoder  *playform.Encoder
	validate *validator.Validate
}

func NewBinder() *Binder {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Binder{
		decoder:  playform.NewDecoder(),
		encoder:  playform.NewEncoder(),
		validate: v,
	}
}

func (b *Binder) RegisterValidation(tag string, fn validator.Func) error {
	return b.validate.RegisterValidation(tag, fn)
}

// Parse reads an urlencoded or multipart request body into a State.
func Parse(r *http.Request) (*State, error) {
	state := New()
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		state.files = r.MultipartForm.File
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for k, vs := range r.PostForm {
		state.Values[k] = append([]string(nil), vs...)
	}
	return state, nil
}

// Bind parses the request into dst and validates it. Validation problems
// are reported on the returned State, not as an error.
func (b *Binder) Bind(r *http.Request, dst any, tr Translator) (*State, error) {
	state, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if err := b.Decode(state, dst); err != nil {
		return state, err
	}
	b.Validate(state, dst, tr)
	return state, nil
}

func (b *Binder) Decode(state *State, dst any) error {
	if err := b.decoder.Decode(dst, state.Values); err != nil {
		var decErrs playform.DecodeErrors
		if errors.As(err, &decErrs) {
			for field := range decErrs {
				state.SetFieldError(field, "validation:invalid")
			}
			return nil
		}
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}

// Validate runs struct validation and stores a localized message per field.
// It reports whether the struct is valid.
func (b *Binder) Validate(state *State, v any, tr Translator) bool {
	for field, key := range state.Errors {
		if strings.HasPrefix(key, "validation:") {
			state.Errors[field] = tr.T(key)
		}
	}

	err := b.validate.Struct(v)
	if err == nil {
		return !state.HasErrors()
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		state.SetFieldError("_form", tr.T("validation:invalid"))
		return false
	}
	for _, fe := range verrs {
		state.SetFieldError(fe.Field(), tr.T(i18n.MatchTag(fe.Tag())))
	}
	return false
}

// Populate renders a struct back into input values.
func (b *Binder) Populate(v any) (*State, error) {
	values, err := b.encoder.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	state := New()
	state.Values = values
	return state, nil
}
