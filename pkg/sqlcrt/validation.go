package sqlcrt

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"
)

// FieldIssue is one reason a row could not become a record.
type FieldIssue struct {
	Field   string
	Column  string
	Message string
}

// ValidationError reports that a row does not fit a record shape.
// It is returned instead of a partially decoded value.
type ValidationError struct {
	Shape  string
	Issues []FieldIssue

	err error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))

	for _, issue := range e.Issues {
		switch {
		case issue.Column != "":
			msgs = append(msgs, fmt.Sprintf("%s: %s", issue.Column, issue.Message))
		default:
			msgs = append(msgs, issue.Message)
		}
	}

	return fmt.Sprintf("%v for %s: %s", ErrValidation, e.Shape, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

var (
	validate     *validator.Validate
	trans        ut.Translator
	validateOnce sync.Once
)

func initValidator() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report columns rather than Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("db"), ",")
		if name == "-" || name == "" {
			return ToSnakeCase(fld.Name)
		}

		return name
	})

	loc := en.New()
	uni := ut.New(loc, loc)
	trans, _ = uni.GetTranslator("en")
	_ = enTrans.RegisterDefaultTranslations(validate, trans)
}

func validateShape(s *shape, v any) error {
	validateOnce.Do(initValidator)

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Shape: s.name, Issues: []FieldIssue{{Message: err.Error()}}, err: err}
	}

	issues := make([]FieldIssue, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		issues = append(issues, FieldIssue{
			Field:   fe.StructField(),
			Column:  fe.Field(),
			Message: fe.Translate(trans),
		})
	}

	return &ValidationError{Shape: s.name, Issues: issues, err: err}
}

func parserError(t reflect.Type, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}

	return &ValidationError{Shape: t.String(), Issues: []FieldIssue{{Message: err.Error()}}, err: err}
}
