package app

import (
	"fmt"
	"sort"
	"strconv"

	"quiz-attempt-service/internal/domain"
)

const (
	marksPerCorrect     = 4
	penaltyPerIncorrect = 1
)

type tally struct {
	correct     int
	incorrect   int
	unattempted int
}

func (t tally) score() int {
	score := t.correct*marksPerCorrect - t.incorrect*penaltyPerIncorrect
	if score < 0 {
		return 0
	}
	return score
}

func (t tally) totalMarks() int {
	return (t.correct + t.incorrect + t.unattempted) * marksPerCorrect
}

// scoreSubmission validates the answer set against quiz content and rebuilds the per-question
// attempts in quiz order. Questions missing from the answer map are recorded as not visited.
func scoreSubmission(quiz domain.QuizDefinition, sub domain.Submission) ([]domain.QuestionAttempt, tally, error) {
	if sub.Answers == nil {
		return nil, tally{}, domain.NewValidationError("answers are required", domain.FieldError{Field: "answers", Error: "answers is a required field"})
	}
	if err := validateAnswers(quiz, sub.Answers); err != nil {
		return nil, tally{}, err
	}

	key := quiz.AnswerKey()
	var t tally
	attempts := make([]domain.QuestionAttempt, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		answer, ok := sub.Answers[question.ID]
		if !ok {
			answer = domain.AnswerInput{Status: domain.AnswerNotVisited}
		}
		selected := normalizeSelection(answer.SelectedOptionID)

		qa := domain.QuestionAttempt{
			QuestionID:       question.ID,
			SelectedOptionID: selected,
			TimeSpent:        clampSeconds(sub.PerQuestionTime[question.ID]),
			Status:           answer.Status,
		}

		switch {
		case selected != nil:
			correct := *selected == key[question.ID]
			qa.IsCorrect = &correct
			if correct {
				t.correct++
			} else {
				t.incorrect++
			}
		case countsAsAnswered(answer.Status):
			t.incorrect++
		default:
			t.unattempted++
		}
		attempts = append(attempts, qa)
	}
	return attempts, t, nil
}

func validateAnswers(quiz domain.QuizDefinition, answers map[int]domain.AnswerInput) error {
	questions := make(map[int]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}

	var fields []domain.FieldError
	for questionID, answer := range answers {
		field := "answers." + strconv.Itoa(questionID)
		question, ok := questions[questionID]
		if !ok {
			fields = append(fields, domain.FieldError{Field: field, Error: fmt.Sprintf("question %d is not part of quiz %s", questionID, quiz.ID)})
			continue
		}
		selected := normalizeSelection(answer.SelectedOptionID)
		if selected == nil {
			continue
		}
		if _, ok := question.OptionText(*selected); !ok {
			fields = append(fields, domain.FieldError{Field: field + ".selectedOptionId", Error: fmt.Sprintf("option %q is not an option of question %d", *selected, questionID)})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return domain.NewValidationError("invalid answers", fields...)
}

// countsAsAnswered reports whether a question without a selection was still marked by the user.
func countsAsAnswered(status domain.AnswerStatus) bool {
	switch status {
	case domain.AnswerAnswered, domain.AnswerReview, domain.AnswerReviewWithAnswer:
		return true
	default:
		return false
	}
}

func normalizeSelection(selected *string) *string {
	if selected == nil || *selected == "" {
		return nil
	}
	v := *selected
	return &v
}

func clampSeconds(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
