package validator

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/otpgate/internal/pkg/strcase"
)

// Validator checks a struct against its `validate` tags.
type Validator interface {
	Validate(data any) error
}

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10ValidationError maps snake_case field names to English messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	parts := make([]string, 0, len(vs))
	for _, field := range slices.Sorted(maps.Keys(vs)) {
		parts = append(parts, field+": "+vs[field])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// rule is a tag this service adds on top of the validator built-ins. A nil
// check only overrides the message of a built-in tag.
type rule struct {
	tag     string
	check   validator.Func
	message string
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

var rules = []rule{
	// NIST 800-63B length bounds; 72 is the bcrypt input limit.
	{tag: "password", check: matches(regexp.MustCompile(`^.{8,72}$`)), message: "{0} must be 8-72 characters"},
	{tag: "otpcode", check: matches(regexp.MustCompile(`^[0-9]{6}$`)), message: "{0} must be exactly 6 digits"},
	{tag: "alphaspace", message: "{0} can contain only letters and spaces"},
	{tag: "iso4217", message: "{0} must be an ISO 4217 currency code"},
}

// V10Validator implements Validator with go-playground/validator and English messages.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator registers the default English messages and the custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(validate, trans, r); err != nil {
			return nil, fmt.Errorf("validator: rule %q: %w", r.tag, err)
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func register(validate *validator.Validate, trans ut.Translator, r rule) error {
	if r.check != nil {
		if err := validate.RegisterValidation(r.tag, r.check); err != nil {
			return err
		}
	}

	return validate.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error { return t.Add(r.tag, r.message, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// Validate returns a V10ValidationError listing every failing field.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}
