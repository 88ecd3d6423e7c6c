package archived

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campuslink/campuslink/internal/platform/httpx"
	"github.com/campuslink/campuslink/internal/shared"
)

// Handler wires the archived-record API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the archived-record routes. The retrieve POST
// requires the CSRF header, installed by the router middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{type}/{id}/", h.Detail)
	r.Post("/{type}/{id}/retrieve/", h.Retrieve)
}

// Detail serves a read-only archived record keyed under its type name,
// e.g. {"success": true, "organization": {...}}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	typeName := chi.URLParam(r, "type")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid record id")
		return
	}
	detail, err := h.service.Get(r.Context(), typeName, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Success(w, httpx.Envelope{typeName: detail})
}

// Retrieve restores an archived record.
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	typeName := chi.URLParam(r, "type")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid record id")
		return
	}
	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.User()
	}
	if err := h.service.Retrieve(r.Context(), actor, typeName, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, "Record retrieved successfully")
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownType):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("archived request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}
