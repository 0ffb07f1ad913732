package analysishttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-fin/meridian/internal/analysis"
	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/statements"
)

// AnalysisService is the report contract the handler depends on.
type AnalysisService interface {
	Horizontal(ctx context.Context, companyID int64, years []int, typ statements.StatementType) (*analysis.HorizontalReport, error)
	Vertical(ctx context.Context, companyID int64, years []int, typ statements.StatementType) (*analysis.VerticalReport, error)
	Validate(ctx context.Context, companyID int64, years []int) (statements.ValidationResult, error)
}

// Handler serves the horizontal and vertical analysis endpoints.
type Handler struct {
	logger  *slog.Logger
	service AnalysisService
	group   singleflight.Group
}

// NewHandler constructs the analysis HTTP handler.
func NewHandler(logger *slog.Logger, service AnalysisService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the analysis routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(60, time.Minute))
		r.Get("/horizontal", h.handleHorizontal)
		r.Get("/horizontal/export", h.handleHorizontalExport)
		r.Get("/vertical", h.handleVertical)
		r.Get("/vertical/export", h.handleVerticalExport)
	})
	r.Get("/validate", h.handleValidate)
}

type reportParams struct {
	companyID int64
	years     []int
	typ       statements.StatementType
}

func (p reportParams) key(kind string) string {
	return fmt.Sprintf("%s:%d:%s:%v", kind, p.companyID, p.typ, p.years)
}

func (h *Handler) parseParams(r *http.Request) (reportParams, error) {
	companyID, ok := httpx.QueryInt64(r, "company_id")
	if !ok {
		return reportParams{}, errors.New("company_id query parameter is required")
	}
	years, ok := httpx.QueryYears(r, "years")
	if !ok {
		return reportParams{}, errors.New("years query parameter is required, e.g. years=2022,2023")
	}
	typ := statements.StatementType(r.URL.Query().Get("type"))
	if !typ.Valid() {
		return reportParams{}, errors.New("type must be BALANCE_SHEET or INCOME_STATEMENT")
	}
	return reportParams{companyID: companyID, years: years, typ: typ}, nil
}

func (h *Handler) handleHorizontal(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	report, err := h.horizontalReport(r.Context(), params)
	if err != nil {
		h.respondReportError(w, params, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleVertical(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	report, err := h.verticalReport(r.Context(), params)
	if err != nil {
		h.respondReportError(w, params, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httpx.QueryInt64(r, "company_id")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "company_id query parameter is required")
		return
	}
	years, ok := httpx.QueryYears(r, "years")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "invalid request", "years query parameter is required")
		return
	}
	result, err := h.service.Validate(r.Context(), companyID, years)
	if err != nil {
		h.logger.Error("validate statements", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "validation failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// horizontalReport collapses concurrent identical report builds into one.
func (h *Handler) horizontalReport(ctx context.Context, params reportParams) (*analysis.HorizontalReport, error) {
	v, err, _ := h.group.Do(params.key("horizontal"), func() (interface{}, error) {
		return h.service.Horizontal(ctx, params.companyID, params.years, params.typ)
	})
	if err != nil {
		return nil, err
	}
	return v.(*analysis.HorizontalReport), nil
}

func (h *Handler) verticalReport(ctx context.Context, params reportParams) (*analysis.VerticalReport, error) {
	v, err, _ := h.group.Do(params.key("vertical"), func() (interface{}, error) {
		return h.service.Vertical(ctx, params.companyID, params.years, params.typ)
	})
	if err != nil {
		return nil, err
	}
	return v.(*analysis.VerticalReport), nil
}

func (h *Handler) respondReportError(w http.ResponseWriter, params reportParams, err error) {
	var incomplete *analysis.IncompleteStatementsError
	switch {
	case errors.As(err, &incomplete):
		httpx.JSON(w, http.StatusUnprocessableEntity, incomplete.Result)
	case errors.Is(err, analysis.ErrNeedTwoYears),
		errors.Is(err, analysis.ErrNoYears),
		errors.Is(err, analysis.ErrNoStatements),
		errors.Is(err, analysis.ErrNoRevenueAccount):
		httpx.Problem(w, http.StatusUnprocessableEntity, "analysis not possible", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "company not found", err.Error())
	default:
		h.logger.Error("build analysis report",
			slog.Int64("company_id", params.companyID),
			slog.String("type", string(params.typ)),
			slog.Any("error", err),
		)
		httpx.Problem(w, http.StatusInternalServerError, "report build failed", "")
	}
}
