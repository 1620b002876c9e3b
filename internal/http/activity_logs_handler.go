package httpapi

import (
	"net/http"
	"strings"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/service"

	"go.uber.org/zap"
)

const activityLogsPath = "/api/v1/activity-logs"

// ActivityLogHandler audit log views and maintenance
type ActivityLogHandler struct {
	activityLogService service.ActivityLogService
	logger             *zap.Logger
}

func NewActivityLogHandler(activityLogService service.ActivityLogService, logger *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{activityLogService: activityLogService, logger: logger}
}

func (h *ActivityLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	route := strings.TrimPrefix(path, activityLogsPath)

	method := http.MethodGet
	var fn http.HandlerFunc
	switch route {
	case "":
		fn = h.List
	case "/filters/options":
		fn = h.FilterOptions
	case "/statistics/summary":
		fn = h.Statistics
	case "/security/alerts":
		fn = h.SecurityAlerts
	case "/inactive-residents":
		fn = h.InactiveResidents
	case "/flag-inactive-residents":
		method, fn = http.MethodPost, h.FlagInactiveResidents
	case "/export":
		method, fn = http.MethodPost, h.Export
	case "/cleanup":
		method, fn = http.MethodDelete, h.Cleanup
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fn(w, r)
}

func queryOf(r *http.Request) backend.ActivityLogQuery {
	q := r.URL.Query()
	return backend.ActivityLogQuery{
		Search:    strings.TrimSpace(q.Get("search")),
		Action:    q.Get("action"),
		ModelType: q.Get("model_type"),
		Role:      q.Get("user_type"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
		Page:      parseInt(q.Get("page"), 0),
		PerPage:   parseInt(q.Get("per_page"), 0),
	}
}

func (h *ActivityLogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.activityLogService.List(requestContext(r), sessionOf(r), queryOf(r))
	if err != nil {
		writeError(w, h.logger, "ListActivityLogs", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(page))
}

func (h *ActivityLogHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	out, err := h.activityLogService.FilterOptions(requestContext(r))
	if err != nil {
		writeError(w, h.logger, "ActivityLogFilterOptions", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ActivityLogHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	out, err := h.activityLogService.Statistics(requestContext(r))
	if err != nil {
		writeError(w, h.logger, "ActivityLogStatistics", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ActivityLogHandler) SecurityAlerts(w http.ResponseWriter, r *http.Request) {
	out, err := h.activityLogService.SecurityAlerts(requestContext(r))
	if err != nil {
		writeError(w, h.logger, "SecurityAlerts", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ActivityLogHandler) InactiveResidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.activityLogService.InactiveResidents(requestContext(r), sessionOf(r),
		parseInt(q.Get("page"), 1), parseInt(q.Get("per_page"), 0))
	if err != nil {
		writeError(w, h.logger, "InactiveResidents", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ActivityLogHandler) FlagInactiveResidents(w http.ResponseWriter, r *http.Request) {
	out, err := h.activityLogService.FlagInactiveResidents(requestContext(r))
	if err != nil {
		writeError(w, h.logger, "FlagInactiveResidents", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// Export filters come from the JSON body, falling back to the query string
func (h *ActivityLogHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := queryOf(r)
	if err := readBodyJSON(r, 1<<20, &q); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	file, err := h.activityLogService.Export(requestContext(r), q)
	if err != nil {
		writeError(w, h.logger, "ExportActivityLogs", err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	if file.Disposition != "" {
		w.Header().Set("Content-Disposition", file.Disposition)
	} else {
		w.Header().Set("Content-Disposition", "attachment; filename=activity_logs.csv")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h *ActivityLogHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	out, err := h.activityLogService.Cleanup(requestContext(r))
	if err != nil {
		writeError(w, h.logger, "CleanupActivityLogs", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
