package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/domain"
)

type errorPayload struct {
	Message string            `json:"error"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError maps domain errors to HTTP responses. storageMsg, when set, is the message of
// storage failures.
func writeError(w http.ResponseWriter, logger logrus.FieldLogger, err error, storageMsg string) {
	var (
		validationErr *domain.ValidationError
		storageErr    *domain.StorageError
	)
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error(), Code: "quiz_not_found"})
	case errors.Is(err, domain.ErrAttemptNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "quiz has not been attempted", Code: "attempt_not_found"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: err.Error(), Code: "unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorPayload{Message: err.Error(), Code: "forbidden"})
	case errors.As(err, &validationErr):
		payload := errorPayload{Message: validationErr.Error(), Code: "validation_error"}
		if len(validationErr.Fields) > 0 {
			payload.Fields = make(map[string]string, len(validationErr.Fields))
			for _, f := range validationErr.Fields {
				payload.Fields[f.Field] = f.Error
			}
		}
		writeJSON(w, http.StatusBadRequest, payload)
	case errors.As(err, &storageErr):
		logger.WithError(err).Error("storage failure")
		msg := storageMsg
		if msg == "" {
			msg = "storage unavailable"
		}
		writeJSON(w, http.StatusServiceUnavailable, errorPayload{Message: msg, Code: "storage_error"})
	default:
		logger.WithError(err).Error("unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: http.StatusText(http.StatusInternalServerError), Code: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
