package handler

import (
	"net/http"

	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
	"github.com/cardiolens/cardiolens-backend/internal/risk/service"
	"github.com/cardiolens/cardiolens-backend/pkg/httputil"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
)

// Handler handles HTTP requests for risk prediction
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new prediction handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log,
	}
}

// Predict handles POST /predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var in domain.ClinicalInput
	if err := httputil.DecodeJSONNumbers(r, &in); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Predict(r.Context(), in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
