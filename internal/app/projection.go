package app

import "quiz-attempt-service/internal/domain"

func projectResult(quiz domain.QuizDefinition, attempt domain.QuizAttempt) domain.QuizResultView {
	view := domain.QuizResultView{
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		AttemptID:   attempt.ID,
		Score:       attempt.Score,
		TotalMarks:  attempt.TotalMarks,
		Correct:     attempt.Correct,
		Incorrect:   attempt.Incorrect,
		Unattempted: attempt.Unattempted,
		TimeSpent:   attempt.TimeSpent,
		TotalTime:   quiz.DurationMinutes * 60,
		Questions:   make([]domain.QuestionResult, 0, len(quiz.Questions)),
	}
	for _, question := range quiz.Questions {
		correctText, _ := question.OptionText(question.CorrectOptionID)
		result := domain.QuestionResult{
			QuestionID:    question.ID,
			Question:      question.Text,
			Options:       question.Options,
			CorrectOption: correctText,
			Status:        domain.AnswerNotVisited,
		}
		if qa, ok := attempt.QuestionByID(question.ID); ok {
			result.SelectedOption = selectedText(question, qa)
			result.IsCorrect = qa.IsCorrect
			result.TimeSpent = qa.TimeSpent
			result.Status = qa.Status
		}
		view.Questions = append(view.Questions, result)
	}
	return view
}

func projectRevision(quiz domain.QuizDefinition, attempt domain.QuizAttempt) domain.RevisionView {
	view := domain.RevisionView{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Questions: make([]domain.RevisionItem, 0, len(quiz.Questions)),
	}
	for _, question := range quiz.Questions {
		correctText, _ := question.OptionText(question.CorrectOptionID)
		item := domain.RevisionItem{
			QuestionID:    question.ID,
			Question:      question.Text,
			Options:       question.Options,
			CorrectAnswer: correctText,
		}
		if qa, ok := attempt.QuestionByID(question.ID); ok {
			item.SelectedAnswer = selectedText(question, qa)
			item.IsCorrect = qa.IsCorrect
		}
		view.Questions = append(view.Questions, item)
	}
	return view
}

// selectedText is nil when nothing was selected or the option no longer exists in the catalog.
func selectedText(question domain.Question, qa domain.QuestionAttempt) *string {
	if qa.SelectedOptionID == nil {
		return nil
	}
	text, ok := question.OptionText(*qa.SelectedOptionID)
	if !ok {
		return nil
	}
	return &text
}
