package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Limits bounds the length of user-supplied set and card fields
type Limits struct {
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxQuestionLength    int
	MaxAnswerLength      int
}

// DefaultLimits returns the stock limits
func DefaultLimits() Limits {
	return Limits{
		MaxTitleLength:       100,
		MaxDescriptionLength: 500,
		MaxQuestionLength:    1000,
		MaxAnswerLength:      1000,
	}
}

// ValidateSet checks a set title and description
func ValidateSet(title, description string, limits Limits) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "Set title is required"}
	}
	if utf8.RuneCountInString(title) > limits.MaxTitleLength {
		return ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("Set title must be less than %d characters", limits.MaxTitleLength),
		}
	}
	if utf8.RuneCountInString(description) > limits.MaxDescriptionLength {
		return ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("Description must be less than %d characters", limits.MaxDescriptionLength),
		}
	}
	return nil
}

// ValidateCard checks a card question and answer
func ValidateCard(question, answer string, limits Limits) error {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)

	if question == "" {
		return ValidationError{Field: "question", Message: "Question is required"}
	}
	if answer == "" {
		return ValidationError{Field: "answer", Message: "Answer is required"}
	}
	if utf8.RuneCountInString(question) > limits.MaxQuestionLength {
		return ValidationError{
			Field:   "question",
			Message: fmt.Sprintf("Question must be less than %d characters", limits.MaxQuestionLength),
		}
	}
	if utf8.RuneCountInString(answer) > limits.MaxAnswerLength {
		return ValidationError{
			Field:   "answer",
			Message: fmt.Sprintf("Answer must be less than %d characters", limits.MaxAnswerLength),
		}
	}
	return nil
}
