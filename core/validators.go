package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// NotBlankTag rejects strings made only of whitespace.
const NotBlankTag = "notblank"

// validation messages replacing or extending the validator's english defaults.
// {0} is the field name and {1} the tag parameter.
var translations = []struct {
	tag      string
	text     string
	override bool
}{
	{tag: NotBlankTag, text: "this field cannot be blank"},
	{tag: "required", text: "this field is required", override: true},
	{tag: "required_with", text: "this field is required", override: true},
	{tag: "eqfield", text: "{0} does not match", override: true},
}

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	locale := en.New()
	translator, _ := ut.New(locale, locale).GetTranslator("en")
	return translator
}

// InitValidators registers the shared validation tags and messages on validate.
// Field errors are keyed by JSON name.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(jsonFieldName)
	_ = validate.RegisterValidation(NotBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	for _, tr := range translations {
		RegisterCustomTranslation(validate, translator, tr.tag, tr.text, tr.override)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// RegisterCustomTranslation sets the message of a validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	ovrd := len(override) > 0 && override[0]
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}
