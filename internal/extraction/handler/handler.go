package handler

import (
	"errors"
	"net/http"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/service"
	apperrors "github.com/cardiolens/cardiolens-backend/pkg/errors"
	"github.com/cardiolens/cardiolens-backend/pkg/httputil"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
)

// DefaultMaxUploadSize is used when no limit is configured
const DefaultMaxUploadSize = 20 << 20 // 20MB

// multipart parts beyond this are spooled to disk by net/http
const maxFormMemory = 8 << 20

// Handler handles HTTP requests for document extraction
type Handler struct {
	service       *service.Service
	maxUploadSize int64
	log           *logger.Logger
}

// NewHandler creates a new document extraction handler
func NewHandler(svc *service.Service, maxUploadSize int64, log *logger.Logger) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{
		service:       svc,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// Extract handles POST /extract
// Accepts a multipart form with a single "file" part (image or PDF) and
// responds with the measurements recognised in it.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httputil.Error(w, apperrors.BadRequest("File too large"))
		case errors.Is(err, http.ErrNotMultipart):
			httputil.Error(w, apperrors.BadRequest("No file part"))
		default:
			httputil.Error(w, apperrors.BadRequest("Invalid multipart form"))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A file input submitted with nothing selected arrives as a part
		// without a filename, which net/http files under Value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			httputil.Error(w, apperrors.BadRequest("No selected file"))
			return
		}
		httputil.Error(w, apperrors.BadRequest("No file part"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		httputil.Error(w, apperrors.BadRequest("No selected file"))
		return
	}

	result, err := h.service.Extract(r.Context(), header.Filename, file)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result.Fields)
}
