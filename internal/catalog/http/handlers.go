package cataloghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/catalog"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
)

// CatalogStore is the repository surface the handler depends on.
type CatalogStore interface {
	Definitions(ctx context.Context) ([]catalog.RatioDefinition, error)
	Definition(ctx context.Context, ratioID int64) (catalog.RatioDefinition, error)
	CatalogID(ctx context.Context, companyID int64) (int64, error)
	UpsertMapping(ctx context.Context, catalogID, componentID int64, accountID *int64) error
}

// Handler serves the ratio catalog endpoints: definition reads and the
// component-to-account mapping administration.
type Handler struct {
	logger   *slog.Logger
	store    CatalogStore
	validate *validator.Validate
}

// NewHandler constructs the catalog HTTP handler.
func NewHandler(logger *slog.Logger, store CatalogStore) *Handler {
	return &Handler{
		logger:   logger,
		store:    store,
		validate: validator.New(),
	}
}

// MountRoutes registers the catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ratios", h.handleListDefinitions)
	r.Get("/ratios/{ratioID}", h.handleGetDefinition)
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Put("/mappings", h.handleUpsertMapping)
	})
}

func (h *Handler) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.store.Definitions(r.Context())
	if err != nil {
		h.logger.Error("list ratio definitions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "list definitions failed", "")
		return
	}
	if defs == nil {
		defs = []catalog.RatioDefinition{}
	}
	httpx.JSON(w, http.StatusOK, defs)
}

func (h *Handler) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	ratioID, err := strconv.ParseInt(chi.URLParam(r, "ratioID"), 10, 64)
	if err != nil || ratioID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "invalid ratio id", "ratioID must be a positive integer")
		return
	}
	def, err := h.store.Definition(r.Context(), ratioID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "ratio not found", err.Error())
			return
		}
		h.logger.Error("load ratio definition", slog.Int64("ratio_id", ratioID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "load definition failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, def)
}

type upsertMappingRequest struct {
	CompanyID   int64  `json:"company_id" validate:"required,gt=0"`
	ComponentID int64  `json:"component_id" validate:"required,gt=0"`
	AccountID   *int64 `json:"account_id" validate:"omitempty,gt=0"`
}

// handleUpsertMapping binds a ratio component to an account of the company's
// catalog. A null account_id leaves the component deliberately unmapped, which
// the calculation engine reports as non-computable.
func (h *Handler) handleUpsertMapping(w http.ResponseWriter, r *http.Request) {
	var req upsertMappingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	catalogID, err := h.store.CatalogID(r.Context(), req.CompanyID)
	if err != nil {
		if errors.Is(err, catalog.ErrNoCatalog) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "no catalog", "company has no catalog configured")
			return
		}
		h.logger.Error("resolve catalog", slog.Int64("company_id", req.CompanyID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "resolve catalog failed", "")
		return
	}

	if err := h.store.UpsertMapping(r.Context(), catalogID, req.ComponentID, req.AccountID); err != nil {
		switch {
		case errors.Is(err, catalog.ErrForeignAccount):
			httpx.Problem(w, http.StatusUnprocessableEntity, "foreign account", err.Error())
		case errors.Is(err, catalog.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "account not found", err.Error())
		case errors.Is(err, catalog.ErrDuplicate):
			httpx.Problem(w, http.StatusConflict, "duplicate mapping", err.Error())
		default:
			h.logger.Error("upsert mapping",
				slog.Int64("catalog_id", catalogID),
				slog.Int64("component_id", req.ComponentID),
				slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "upsert mapping failed", "")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
