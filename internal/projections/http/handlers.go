package projectionshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/projections"
)

// ForecastService is the projection contract the handler depends on.
type ForecastService interface {
	Project(ctx context.Context, companyID int64, method projections.Method) (*projections.Forecast, error)
}

// ForecastReader lists stored forecasts.
type ForecastReader interface {
	Forecasts(ctx context.Context, companyID int64, method *projections.Method) ([]projections.Projection, error)
}

// Handler serves the sales projection endpoints.
type Handler struct {
	logger   *slog.Logger
	service  ForecastService
	reader   ForecastReader
	validate *validator.Validate
}

// NewHandler constructs the projections HTTP handler.
func NewHandler(logger *slog.Logger, service ForecastService, reader ForecastReader) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		reader:   reader,
		validate: validator.New(),
	}
}

// MountRoutes registers the projection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Post("/", h.handleProject)
	})
	r.Get("/", h.handleList)
}

type projectRequest struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	Method    string `json:"method" validate:"required,oneof=LEAST_SQUARES PCT_INCREMENT ABS_INCREMENT"`
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	forecast, err := h.service.Project(r.Context(), req.CompanyID, projections.Method(req.Method))
	if err != nil {
		switch {
		case errors.Is(err, projections.ErrNoHistory),
			errors.Is(err, projections.ErrTooFewObservations),
			errors.Is(err, projections.ErrZeroBase):
			httpx.Problem(w, http.StatusUnprocessableEntity, "forecast not possible", err.Error())
		default:
			h.logger.Error("build forecast", slog.Int64("company_id", req.CompanyID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "forecast failed", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, forecast)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.QueryInt64(r, "company_id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "invalid company_id", "company_id query parameter is required")
		return
	}
	var method *projections.Method
	if raw := r.URL.Query().Get("method"); raw != "" {
		m := projections.Method(raw)
		if !m.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "invalid method", "method must be LEAST_SQUARES, PCT_INCREMENT or ABS_INCREMENT")
			return
		}
		method = &m
	}

	months, err := h.reader.Forecasts(r.Context(), companyID, method)
	if err != nil {
		h.logger.Error("list forecasts", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "list forecasts failed", "")
		return
	}
	if months == nil {
		months = []projections.Projection{}
	}
	httpx.JSON(w, http.StatusOK, months)
}
