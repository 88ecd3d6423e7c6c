package nstp

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

// Handler wires the NSTP file endpoints.
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
	return &Handler{logger: logger, service: service, listCache: listCache, validator: validator.New()}
}

// MountRoutes registers NSTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}/view/", h.View)
	r.Post("/{id}/edit/", h.Edit)
}

type listPage struct {
	Items      []File            `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// List serves the server-paginated NSTP files tab.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	filters := ListFilters{
		Search:     q.Get("search"),
		Component:  disabledToEmpty(q.Get("component")),
		SchoolYear: disabledToEmpty(q.Get("school_year")),
		Page:       page,
		PerPage:    10,
	}

	key, err := h.listCache.Key(r.Context(), "nstp-files", r.URL.RawQuery)
	if err != nil {
		h.logger.Warn("nstp list cache key", slog.Any("error", err))
	}
	var result listPage
	err = h.listCache.FetchJSON(r.Context(), key, &result, func(ctx context.Context) (any, error) {
		items, pagination, err := h.service.List(ctx, filters)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []File{}
		}
		return listPage{Items: items, Pagination: pagination}, nil
	})
	if err != nil {
		h.logger.Error("list nstp files", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "unable to load NSTP files")
		return
	}
	httpx.Success(w, httpx.Envelope{"items": result.Items, "pagination": result.Pagination})
}

// View serves one file record.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid file id")
		return
	}
	file, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{"file": file})
}

// Edit updates a file record's metadata.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid file id")
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
	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.User()
	}
	file, err := h.service.Edit(r.Context(), actor, id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{"message": "NSTP file updated", "file": file})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("nstp request failed", slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, "internal error")
}

func disabledToEmpty(value string) string {
	if value == "all" {
		return ""
	}
	return value
}
