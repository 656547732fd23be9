package domain

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a quiz definition before it enters the catalog.
func (q QuizDefinition) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(q.ID) == "" {
		fields = append(fields, FieldError{Field: "id", Error: "id is required"})
	}
	if q.DurationMinutes <= 0 {
		fields = append(fields, FieldError{Field: "durationMinutes", Error: "durationMinutes must be positive"})
	}
	if q.Status != "" && !q.Status.Valid() {
		fields = append(fields, FieldError{Field: "status", Error: fmt.Sprintf("unknown status %q", q.Status)})
	}

	seen := make(map[int]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if _, dup := seen[question.ID]; dup {
			fields = append(fields, FieldError{Field: prefix + ".id", Error: fmt.Sprintf("duplicate question id %d", question.ID)})
		}
		seen[question.ID] = struct{}{}

		matches := 0
		for _, opt := range question.Options {
			if opt.ID == question.CorrectOptionID {
				matches++
			}
		}
		if matches != 1 {
			fields = append(fields, FieldError{
				Field: prefix + ".correctOptionId",
				Error: fmt.Sprintf("correct option %q must match exactly one option, matched %d", question.CorrectOptionID, matches),
			})
		}
	}

	if len(fields) > 0 {
		return NewValidationError("invalid quiz definition", fields...)
	}
	return nil
}
