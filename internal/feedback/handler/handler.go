package handler

import (
	"net/http"

	"github.com/cardiolens/cardiolens-backend/internal/feedback/domain"
	"github.com/cardiolens/cardiolens-backend/internal/feedback/service"
	"github.com/cardiolens/cardiolens-backend/pkg/httputil"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
)

// Handler handles HTTP requests for feedback
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new feedback handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log,
	}
}

// Submit handles POST /feedback
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if _, err := h.service.Submit(r.Context(), &req); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, domain.SubmitResponse{Success: domain.Acknowledgement})
}
