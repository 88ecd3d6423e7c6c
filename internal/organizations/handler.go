package organizations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuslink/campuslink/internal/platform/cache"
	"github.com/campuslink/campuslink/internal/platform/httpx"
	"github.com/campuslink/campuslink/internal/shared"
)

// Handler wires the organization endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	listCache *cache.ListCache
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, listCache *cache.ListCache) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		listCache: listCache,
		validator: validator.New(),
	}
}

// MountRoutes registers organization routes. Mutating routes sit behind
// the CSRF middleware installed by the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}/view/", h.View)
	r.Post("/{id}/edit/", h.Edit)
	r.Post("/{id}/approve/", h.lifecycle("Organization approved", h.service.Approve))
	r.Post("/{id}/renew/", h.lifecycle("Organization recognition renewed", h.service.Renew))
	r.Post("/{id}/archive/", h.lifecycle("Organization archived", h.service.Archive))
	r.Post("/{id}/reactivate/", h.lifecycle("Organization reactivated", h.service.Reactivate))
}

type listPage struct {
	Items      []Organization    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// List serves the server-paginated organizations tab. Pages are cached
// under the raw listing query until the next mutation bumps the version.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	filters := ListFilters{
		Search:   q.Get("search"),
		Category: disabledToEmpty(q.Get("category")),
		Status:   disabledToEmpty(q.Get("status")),
		Page:     page,
		PerPage:  10,
	}

	key, err := h.listCache.Key(r.Context(), "organizations", r.URL.RawQuery)
	if err != nil {
		h.logger.Warn("organization list cache key", slog.Any("error", err))
	}
	var result listPage
	err = h.listCache.FetchJSON(r.Context(), key, &result, func(ctx context.Context) (any, error) {
		items, pagination, err := h.service.List(ctx, filters)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Organization{}
		}
		return listPage{Items: items, Pagination: pagination}, nil
	})
	if err != nil {
		h.logger.Error("list organizations", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "unable to load organizations")
		return
	}
	httpx.Success(w, httpx.Envelope{"items": result.Items, "pagination": result.Pagination})
}

// View serves one organization's detail payload.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid organization id")
		return
	}
	org, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{"organization": org})
}

// Create accepts a new organization application.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.ValidationFieldErrors(w, err)
		return
	}
	org, err := h.service.Create(r.Context(), actorFrom(r), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{"message": "Organization application submitted", "organization": org})
}

// Edit updates an organization's editable fields.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid organization id")
		return
	}
	var input EditInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.ValidationFieldErrors(w, err)
		return
	}
	org, err := h.service.Edit(r.Context(), actorFrom(r), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{"message": "Organization updated", "organization": org})
}

func (h *Handler) lifecycle(message string, op func(ctx context.Context, actor string, id int64) (Organization, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid organization id")
			return
		}
		org, err := op(r.Context(), actorFrom(r), id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.Success(w, httpx.Envelope{"message": message, "organization": org})
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("organization request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorFrom(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.User()
	}
	return ""
}

func disabledToEmpty(value string) string {
	if value == "all" {
		return ""
	}
	return value
}
