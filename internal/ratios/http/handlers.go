package ratioshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/ratios"
)

// RatioService is the calculation contract the handler depends on.
type RatioService interface {
	Calculate(ctx context.Context, req ratios.CalculateRequest) (ratios.BatchResult, error)
	Results(ctx context.Context, companyID int64, years []int) ([]ratios.Result, error)
	RecomputeAverages(ctx context.Context, ratioID *int64) ([]ratios.AverageUpdate, error)
}

// Handler serves the ratio calculation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  RatioService
	validate *validator.Validate
}

// NewHandler constructs the ratios HTTP handler.
func NewHandler(logger *slog.Logger, service RatioService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the ratio routes. Calculation batches are rate
// limited per client since each one rewrites a snapshot.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/calculate", h.handleCalculate)
		r.Post("/averages/recompute", h.handleRecomputeAverages)
	})
	r.Get("/results", h.handleResults)
}

type calculateRequest struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	Years     []int  `json:"years" validate:"required,min=1,dive,gte=1900,lte=2100"`
	UserID    *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	result, err := h.service.Calculate(r.Context(), ratios.CalculateRequest{
		CompanyID: req.CompanyID,
		Years:     req.Years,
		UserID:    req.UserID,
	})
	if err != nil {
		h.respondCalculateError(w, req.CompanyID, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondCalculateError(w http.ResponseWriter, companyID int64, err error) {
	var incomplete *ratios.IncompleteStatementsError
	switch {
	case errors.As(err, &incomplete):
		httpx.JSON(w, http.StatusUnprocessableEntity, incomplete.Result)
	case errors.Is(err, ratios.ErrNoYears):
		httpx.Problem(w, http.StatusUnprocessableEntity, "invalid years", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "company not found", err.Error())
	default:
		h.logger.Error("calculate batch", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "calculation failed", "")
	}
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.QueryInt64(r, "company_id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "invalid company_id", "company_id query parameter is required")
		return
	}
	years, _ := httpx.QueryYears(r, "years")

	results, err := h.service.Results(r.Context(), companyID, years)
	if err != nil {
		h.logger.Error("load results", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "load results failed", "")
		return
	}
	if results == nil {
		results = []ratios.Result{}
	}
	httpx.JSON(w, http.StatusOK, results)
}

type recomputeRequest struct {
	RatioID *int64 `json:"ratio_id" validate:"omitempty,gt=0"`
}

func (h *Handler) handleRecomputeAverages(w http.ResponseWriter, r *http.Request) {
	var req recomputeRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.ValidationProblem(w, err)
			return
		}
	}

	updates, err := h.service.RecomputeAverages(r.Context(), req.RatioID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "ratio not found", err.Error())
			return
		}
		h.logger.Error("recompute averages", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "recompute failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, updates)
}
