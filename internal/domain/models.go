package domain

import "time"

// LifecycleStatus is the administrative status stored with a quiz definition.
type LifecycleStatus string

const (
	LifecycleUpcoming LifecycleStatus = "upcoming"
	LifecycleLive     LifecycleStatus = "live"
	LifecycleArchived LifecycleStatus = "archived"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s LifecycleStatus) Valid() bool {
	switch s {
	case LifecycleUpcoming, LifecycleLive, LifecycleArchived:
		return true
	default:
		return false
	}
}

// QuizStatus is the user-facing status of a quiz.
type QuizStatus string

const (
	StatusUpcoming  QuizStatus = "upcoming"
	StatusLive      QuizStatus = "live"
	StatusAttempted QuizStatus = "attempted"
	StatusMissed    QuizStatus = "missed"
)

// AnswerStatus is the palette tag the client attaches to each question.
// Unknown values are stored as-is.
type AnswerStatus string

const (
	AnswerAnswered         AnswerStatus = "answered"
	AnswerNotAnswered      AnswerStatus = "not-answered"
	AnswerNotVisited       AnswerStatus = "not-visited"
	AnswerReview           AnswerStatus = "review"
	AnswerReviewWithAnswer AnswerStatus = "review-with-answer"
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID              int      `json:"id" yaml:"id"`
	Text            string   `json:"text" yaml:"text"`
	Options         []Option `json:"options" yaml:"options"`
	CorrectOptionID string   `json:"correctOptionId" yaml:"correctOptionId"`
}

// OptionText returns the display text of the option with the given id.
func (q Question) OptionText(optionID string) (string, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt.Text, true
		}
	}
	return "", false
}

// QuizDefinition is a catalog entry.
type QuizDefinition struct {
	ID              string          `json:"id" yaml:"id"`
	Title           string          `json:"title" yaml:"title"`
	StartTime       time.Time       `json:"startTime" yaml:"startTime"`
	DurationMinutes int             `json:"durationMinutes" yaml:"durationMinutes"`
	Questions       []Question      `json:"questions" yaml:"questions"`
	Syllabus        []string        `json:"syllabus,omitempty" yaml:"syllabus"`
	Status          LifecycleStatus `json:"status" yaml:"status"`
}

// EndTime is the scheduled start plus the duration.
func (q QuizDefinition) EndTime() time.Time {
	return q.StartTime.Add(time.Duration(q.DurationMinutes) * time.Minute)
}

// AnswerKey maps question ids to their correct option id.
func (q QuizDefinition) AnswerKey() map[int]string {
	key := make(map[int]string, len(q.Questions))
	for _, question := range q.Questions {
		key[question.ID] = question.CorrectOptionID
	}
	return key
}

// QuestionAttempt is the stored outcome of one question inside an attempt.
type QuestionAttempt struct {
	QuestionID       int          `json:"questionId"`
	SelectedOptionID *string      `json:"selectedOptionId"`
	IsCorrect        *bool        `json:"isCorrect"`
	TimeSpent        int          `json:"timeSpent"`
	Status           AnswerStatus `json:"status"`
}

// QuizAttempt is one test-taking session against a quiz.
type QuizAttempt struct {
	ID          string            `json:"id"`
	QuizID      string            `json:"quizId"`
	UserIDs     []string          `json:"userIds"`
	LastUserID  string            `json:"lastUserId"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	IsCompleted bool              `json:"isCompleted"`
	TimeSpent   int               `json:"timeSpent"`
	Questions   []QuestionAttempt `json:"questions"`
	Correct     int               `json:"correct"`
	Incorrect   int               `json:"incorrect"`
	Unattempted int               `json:"unattempted"`
	Score       int               `json:"score"`
	TotalMarks  int               `json:"totalMarks"`
}

// HasUser reports whether userID shares this attempt record.
func (a QuizAttempt) HasUser(userID string) bool {
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// QuestionByID returns the stored attempt for a question, if the question was recorded.
func (a QuizAttempt) QuestionByID(questionID int) (QuestionAttempt, bool) {
	for _, qa := range a.Questions {
		if qa.QuestionID == questionID {
			return qa, true
		}
	}
	return QuestionAttempt{}, false
}

// AnswerInput is one entry of a submitted answer map.
type AnswerInput struct {
	SelectedOptionID *string      `json:"selectedOptionId"`
	Status           AnswerStatus `json:"status"`
}

// Submission is a complete answer set for a quiz.
type Submission struct {
	Answers         map[int]AnswerInput
	TotalTimeSpent  int
	PerQuestionTime map[int]int
}

// AttemptSummary is returned to the client after a submission.
type AttemptSummary struct {
	AttemptID   string `json:"attemptId"`
	Score       int    `json:"score"`
	TotalMarks  int    `json:"totalMarks"`
	Correct     int    `json:"correct"`
	Incorrect   int    `json:"incorrect"`
	Unattempted int    `json:"unattempted"`
}

// QuizSummary is a catalog entry annotated with the caller's status.
type QuizSummary struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	StartTime       time.Time  `json:"startTime"`
	DurationMinutes int        `json:"durationMinutes"`
	QuestionCount   int        `json:"questionCount"`
	Syllabus        []string   `json:"syllabus,omitempty"`
	Status          QuizStatus `json:"status"`
}

// StatusBoard is the status-annotated quiz list pushed to a connected user.
type StatusBoard struct {
	UserID    string        `json:"userId"`
	Quizzes   []QuizSummary `json:"quizzes"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// QuestionResult is the per-question part of a result view.
type QuestionResult struct {
	QuestionID     int          `json:"questionId"`
	Question       string       `json:"question"`
	Options        []Option     `json:"options"`
	CorrectOption  string       `json:"correctOption"`
	SelectedOption *string      `json:"selectedOption"`
	IsCorrect      *bool        `json:"isCorrect"`
	TimeSpent      int          `json:"timeSpent"`
	Status         AnswerStatus `json:"status"`
}

// QuizResultView reconstructs a completed attempt against the catalog.
type QuizResultView struct {
	QuizID      string           `json:"quizId"`
	Title       string           `json:"title"`
	AttemptID   string           `json:"attemptId"`
	Score       int              `json:"score"`
	TotalMarks  int              `json:"totalMarks"`
	Correct     int              `json:"correct"`
	Incorrect   int              `json:"incorrect"`
	Unattempted int              `json:"unattempted"`
	TimeSpent   int              `json:"timeSpent"`
	TotalTime   int              `json:"totalTime"`
	Questions   []QuestionResult `json:"questions"`
}

// RevisionItem is one question of a revision view.
type RevisionItem struct {
	QuestionID     int      `json:"questionId"`
	Question       string   `json:"question"`
	Options        []Option `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	SelectedAnswer *string  `json:"selectedAnswer"`
	IsCorrect      *bool    `json:"isCorrect"`
}

// RevisionView lists questions with answers, without aggregate scoring.
type RevisionView struct {
	QuizID    string         `json:"quizId"`
	Title     string         `json:"title"`
	Questions []RevisionItem `json:"questions"`
}

// PriorAttempt tells whether the caller already completed a quiz.
type PriorAttempt struct {
	Attempted bool   `json:"attempted"`
	AttemptID string `json:"attemptId,omitempty"`
}
