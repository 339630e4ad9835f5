package documents

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docvault/docvault/internal/api"
	"github.com/docvault/docvault/internal/api/auth"
	"github.com/docvault/docvault/internal/types"
)

// maxUploadBytes caps multipart uploads at 10 MB.
const maxUploadBytes = 10 << 20

// allowedExtensions are the accepted document formats: PDF, the Office
// family, plain text, RTF and the OpenDocument equivalents.
var allowedExtensions = map[string]struct{}{
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {},
	"ppt": {}, "pptx": {}, "txt": {}, "rtf": {},
	"odt": {}, "ods": {}, "odp": {},
}

type DocumentHandler struct {
	service DocumentService
	logger  *slog.Logger
}

func NewDocumentHandler(service DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// Upload accepts a multipart form with the file under field "document".
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "not authorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "file exceeds the 10 MB limit or the form is malformed")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		api.ErrorResponse(w, r, http.StatusBadRequest, "file exceeds the 10 MB limit")
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if _, allowed := allowedExtensions[ext]; !allowed {
		api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("file type %q is not allowed", ext))
		return
	}

	doc, err := h.service.Upload(r.Context(), user, &UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]interface{}{
		"message":  "Document uploaded successfully",
		"document": doc,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "not authorized")
		return
	}

	docs, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}
	if docs == nil {
		docs = []types.Document{}
	}

	api.WriteJSONResponse(w, r, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "not authorized")
		return
	}

	doc, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"document": doc})
}

// Download streams the document bytes with content-disposition set for
// inline PDF preview or attachment download. When the proxy fetch
// fails the client is redirected to the provider URL instead.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "not authorized")
		return
	}

	result, err := h.service.Download(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	switch {
	case result.RedirectURL != "":
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)

	case result.BareURL != "":
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"url": result.BareURL})

	default:
		defer result.Body.Close()

		disposition := "attachment"
		if result.Inline {
			disposition = "inline"
		}
		name := result.Document.Name
		w.Header().Set("Content-Type", result.ContentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, disposition, name, url.PathEscape(name)))
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		if _, err := io.Copy(w, result.Body); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to stream document", slog.Any("error", err))
		}
	}
}

func (h *DocumentHandler) UpdateSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "not authorized")
		return
	}

	var req UpdateSummaryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateSummary(r.Context(), user.ID, chi.URLParam(r, "id"), req.Summary); err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "File summary updated successfully"})
}

func (h *DocumentHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Summarize(req.Text)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, SummarizeResponse{Summary: summary})
}
