package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// AdminHandler serves catalog authoring and attempt inspection.
type AdminHandler struct {
	catalog  *app.CatalogService
	attempts *app.AttemptService
	log      logrus.FieldLogger
}

func NewAdminHandler(catalog *app.CatalogService, attempts *app.AttemptService, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{catalog: catalog, attempts: attempts, log: logger}
}

type optionPayload struct {
	ID   string `json:"id" validate:"required,max=64"`
	Text string `json:"text" validate:"required"`
}

type questionPayload struct {
	ID              int             `json:"id"`
	Text            string          `json:"text" validate:"required"`
	Options         []optionPayload `json:"options" validate:"min=2,dive"`
	CorrectOptionID string          `json:"correctOptionId" validate:"required"`
}

type quizPayload struct {
	Title           string            `json:"title" validate:"required"`
	StartTime       time.Time         `json:"startTime" validate:"required"`
	DurationMinutes int               `json:"durationMinutes" validate:"gt=0"`
	Questions       []questionPayload `json:"questions" validate:"required,dive"`
	Syllabus        []string          `json:"syllabus"`
	Status          string            `json:"status" validate:"omitempty,oneof=upcoming live archived"`
}

func (h *AdminHandler) UpsertQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizPayload
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.log, err, "")
		return
	}

	quiz := domain.QuizDefinition{
		ID:              mux.Vars(r)["quizId"],
		Title:           req.Title,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Syllabus:        req.Syllabus,
		Status:          domain.LifecycleStatus(req.Status),
		Questions:       make([]domain.Question, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		question := domain.Question{ID: q.ID, Text: q.Text, CorrectOptionID: q.CorrectOptionID}
		for _, opt := range q.Options {
			question.Options = append(question.Options, domain.Option{ID: opt.ID, Text: opt.Text})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	stored, err := h.catalog.UpsertQuiz(r.Context(), quiz)
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *AdminHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.attempts.ListAttempts(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeError(w, h.log, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}
