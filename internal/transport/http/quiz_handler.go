package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// QuizHandler serves the student-facing quiz attempt endpoints.
type QuizHandler struct {
	service *app.AttemptService
	feed    *app.StatusFeed
	log     logrus.FieldLogger
}

func NewQuizHandler(service *app.AttemptService, feed *app.StatusFeed, logger logrus.FieldLogger) *QuizHandler {
	return &QuizHandler{service: service, feed: feed, log: logger}
}

type answerPayload struct {
	SelectedOptionID *string `json:"selectedOptionId" validate:"omitempty,max=64"`
	Status           string  `json:"status" validate:"required,max=32"`
}

type submitRequest struct {
	Answers         map[int]answerPayload `json:"answers" validate:"required,dive"`
	TotalTimeSpent  int                   `json:"totalTimeSpent"`
	PerQuestionTime map[int]int           `json:"perQuestionTime"`
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context(), callerID(r))
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.Start(r.Context(), mux.Vars(r)["quizId"], callerID(r))
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"attemptId": attempt.ID, "startTime": attempt.StartTime})
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.log, err, "")
		return
	}

	sub := domain.Submission{
		Answers:         make(map[int]domain.AnswerInput, len(req.Answers)),
		TotalTimeSpent:  req.TotalTimeSpent,
		PerQuestionTime: req.PerQuestionTime,
	}
	for questionID, answer := range req.Answers {
		sub.Answers[questionID] = domain.AnswerInput{
			SelectedOptionID: answer.SelectedOptionID,
			Status:           domain.AnswerStatus(answer.Status),
		}
	}

	userID := callerID(r)
	summary, err := h.service.Submit(r.Context(), mux.Vars(r)["quizId"], userID, sub)
	if err != nil {
		writeError(w, h.log, err, "submission failed")
		return
	}
	if h.feed != nil {
		if err := h.feed.Publish(r.Context(), userID); err != nil {
			h.log.WithError(err).WithField("user", userID).Warn("status feed publish failed")
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *QuizHandler) Result(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Result(r.Context(), mux.Vars(r)["quizId"], callerID(r))
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Revision(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Revision(r.Context(), mux.Vars(r)["quizId"], callerID(r))
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) PriorAttempt(w http.ResponseWriter, r *http.Request) {
	prior, err := h.service.PriorAttempt(r.Context(), mux.Vars(r)["quizId"], callerID(r))
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, prior)
}
