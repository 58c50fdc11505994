package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "sentipulse/internal/errors"
	"sentipulse/internal/services"
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Stock string `json:"stock"`
}

// AnalyzeHandler handles sentiment analysis HTTP requests
type AnalyzeHandler struct {
	service *services.AnalysisService
	logger  *slog.Logger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(service *services.AnalysisService, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "analyze")),
	}
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, apierrors.ErrInvalidStock)
		return
	}

	result, err := h.service.Analyze(r.Context(), req.Stock)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Analysis request failed",
			slog.String("stock", req.Stock),
			slog.String("error", err.Error()))
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// renderError writes the error payload with the status the error maps to.
// Untyped errors fall back to message classification so callers still get
// 400s for credential and resolution failures raised by older code paths.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, apierrors.StatusFor(err))
	render.JSON(w, r, map[string]interface{}{
		"error": err.Error(),
	})
}
