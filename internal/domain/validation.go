package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(questionStructLevel, Question{})
	return v
}

// questionStructLevel enforces a single canonical answer for each question type.
func questionStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	switch q.Type {
	case QuestionMultipleChoice:
		if len(q.Options) < 2 {
			sl.ReportError(q.Options, "options", "Options", "minoptions", "2")
			return
		}
		correct := 0
		matches := false
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
				matches = strings.EqualFold(opt.Text, q.CorrectAnswer)
			}
		}
		if correct != 1 || !matches {
			sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "canonical", "")
		}
	case QuestionTrueFalse:
		if !strings.EqualFold(q.CorrectAnswer, "true") && !strings.EqualFold(q.CorrectAnswer, "false") {
			sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "boolean", "")
		}
	}
}

// Validate checks a quiz and its questions before persistence.
func (q Quiz) Validate() error {
	verr := &ValidationError{}
	if err := validate.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate quiz: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fieldPath(fe.Namespace()), describe(fe))
		}
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.ID == "" {
			continue
		}
		if _, dup := seen[question.ID]; dup {
			verr.add(fmt.Sprintf("questions[%d].id", i), "is duplicated")
		}
		seen[question.ID] = struct{}{}
	}
	return verr.orNil()
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if isString {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		if isString {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "minoptions":
		return "needs at least " + fe.Param() + " options"
	case "canonical":
		return "must match exactly one option marked correct"
	case "boolean":
		return "must be true or false"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
