package views

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campuslink/campuslink/internal/listing"
	"github.com/campuslink/campuslink/internal/platform/cache"
	"github.com/campuslink/campuslink/internal/platform/httpx"
	"github.com/campuslink/campuslink/internal/shared"
)

const tabPageSize = 10

// Handler serves every declared tab through one listing endpoint.
type Handler struct {
	logger    *slog.Logger
	loader    Loader
	listCache *cache.ListCache
	now       func() time.Time
}

// NewHandler constructs the tab handler.
func NewHandler(logger *slog.Logger, loader Loader, listCache *cache.ListCache) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		loader:    loader,
		listCache: listCache,
		now:       time.Now,
	}
}

// MountRoutes registers the generic tab listing route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{tab}/rows/", h.Rows)
}

type rowPayload struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
	Date   *time.Time        `json:"date,omitempty"`
}

// Rows filters, sorts and pages one tab. The full record set is cached per
// tab; filtering runs in-process so every tab shares the same semantics.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	tab, err := Find(chi.URLParam(r, "tab"))
	if err != nil {
		httpx.Fail(w, http.StatusNotFound, err.Error())
		return
	}

	key, err := h.listCache.Key(r.Context(), "tab", tab.Name)
	if err != nil {
		h.logger.Warn("tab cache key", slog.String("tab", tab.Name), slog.Any("error", err))
	}
	var records []listing.Record
	err = h.listCache.FetchJSON(r.Context(), key, &records, func(ctx context.Context) (any, error) {
		return h.loader.Load(ctx, tab)
	})
	if err != nil {
		h.logger.Error("load tab", slog.String("tab", tab.Name), slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "unable to load "+tab.Name)
		return
	}

	q := r.URL.Query()
	state := tab.StateFromQuery(q.Get)
	matched := listing.EvaluateRecords(tab.Config(), state, records, h.now())

	page := 1
	if parsed, err := parsePage(q.Get("page")); err == nil {
		page = parsed
	}
	pagination := shared.NewPagination(page, tabPageSize, len(matched))
	start, end := pagination.Offset(), pagination.EndIndex
	if end > len(matched) {
		end = len(matched)
	}
	if start > end {
		start = end
	}

	items := make([]rowPayload, 0, end-start)
	for _, record := range matched[start:end] {
		row := rowPayload{ID: record.ID, Fields: record.Fields}
		if !record.Date.IsZero() {
			stamp := record.Date
			row.Date = &stamp
		}
		items = append(items, row)
	}
	httpx.Success(w, httpx.Envelope{"items": items, "pagination": pagination})
}

func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	return strconv.Atoi(raw)
}
