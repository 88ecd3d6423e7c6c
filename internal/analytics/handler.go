package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campuslink/campuslink/internal/platform/httpx"
)

// Handler serves the activity export endpoint.
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

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export-activities/", h.ExportActivities)
}

// ExportActivities streams the activity feed as a CSV download.
// Date bounds use YYYY-MM-DD; `to` is exclusive of the following day.
func (h *Handler) ExportActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ExportFilters{EntityType: q.Get("type")}

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid from date")
			return
		}
		filters.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid to date")
			return
		}
		filters.To = to.AddDate(0, 0, 1)
	}

	payload, err := h.service.ExportCSV(r.Context(), filters)
	if err != nil {
		h.logger.Error("export activities", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "unable to export activities")
		return
	}

	filename := fmt.Sprintf("activities-%s.csv", h.service.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
