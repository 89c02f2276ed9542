package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/go-playground/validator/v10"
)

const (
	MAX_TAG_LENGTH   = 20
	CHARS_PER_MINUTE = 200
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct returns a validation *Error describing the first failing field.
func validateStruct(op string, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError(op, err.Error())
	}

	return validationError(op, describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

// normalizePostInput trims the form, fills the category fallback and cleans tags.
func normalizePostInput(input dto.PostInput) dto.PostInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Excerpt = strings.TrimSpace(input.Excerpt)
	input.Content = strings.TrimSpace(input.Content)
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))
	if input.Category == "" {
		input.Category = model.CategoryFallback
	}
	input.Tags = normalizeTags(input.Tags)
	return input
}

// normalizeTags trims, drops empty or over-long tags and removes duplicates,
// keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || utf8.RuneCountInString(tag) > MAX_TAG_LENGTH {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// EstimateReadTime is ceil(characters / 200) minutes, at least one.
func EstimateReadTime(content string) int {
	minutes := int(math.Ceil(float64(utf8.RuneCountInString(content)) / CHARS_PER_MINUTE))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// postFields validates input and converts it into the stored fields.
func postFields(op string, input dto.PostInput) (model.PostFields, error) {
	input = normalizePostInput(input)
	if err := validateStruct(op, input); err != nil {
		return model.PostFields{}, err
	}

	readTime := input.ReadTime
	if readTime <= 0 {
		readTime = EstimateReadTime(input.Content)
	}

	return model.PostFields{
		Title:    input.Title,
		Excerpt:  input.Excerpt,
		Content:  input.Content,
		Category: input.Category,
		Tags:     input.Tags,
		ReadTime: readTime,
	}, nil
}
