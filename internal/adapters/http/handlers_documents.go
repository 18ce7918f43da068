package httpadapter

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

func (rt *Router) createDocument(w http.ResponseWriter, r *http.Request) {
	var input domain.DocumentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	doc, err := rt.documents.Create(r.Context(), userFromContext(r.Context()).ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.documents.List(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.documents.Get(r.Context(), userFromContext(r.Context()).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) updateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch domain.DocumentPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	doc, err := rt.documents.Update(r.Context(), userFromContext(r.Context()).ID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.documents.Delete(r.Context(), userFromContext(r.Context()).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing and the title field.
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(r.Context(), domain.Upload{
		OwnerID:  userFromContext(r.Context()).ID,
		Title:    r.FormValue("title"),
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Body:     file,
	})
	if rt.metrics != nil {
		format := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
		rt.metrics.RecordUpload(serviceName, format, rt.backend, header.Size, err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) downloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, body, err := rt.documents.OpenFile(r.Context(), userFromContext(r.Context()).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("file_stream_interrupted", "request_id", requestIDFromContext(r.Context()), "document_id", doc.ID, "error", err)
	}
}

func (rt *Router) summarizeDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.summarizer.Summarize(r.Context(), userFromContext(r.Context()).ID, id)
	if err != nil {
		if mapErrorToHTTPStatus(err) == http.StatusInternalServerError {
			slog.Error("summary_failed", "request_id", requestIDFromContext(r.Context()), "document_id", id, "error", err)
			writeDetail(w, http.StatusBadGateway, "Summary failed")
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
