package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrConflict):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized), domain.IsKind(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func detailFor(status int, err error) string {
	if msg, ok := domain.PublicMessage(err); ok {
		return msg
	}
	switch status {
	case http.StatusNotFound:
		return "Document not found"
	case http.StatusUnauthorized:
		return "Invalid token"
	case http.StatusRequestEntityTooLarge:
		return "File too large"
	case http.StatusUnsupportedMediaType:
		return "Unsupported file format"
	case http.StatusUnprocessableEntity:
		return "Error extracting text: " + err.Error()
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeDetail(w, status, detailFor(status, err))
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
