package httpapi

import (
	"net/http"
	"strings"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/export"
	"github.com/Maristella28/Bms-1125-sub002/internal/service"

	"go.uber.org/zap"
)

const residentsPath = "/api/v1/residents"

// ResidentHandler residents list, export and verification actions
type ResidentHandler struct {
	residentService service.ResidentService
	logger          *zap.Logger
}

func NewResidentHandler(residentService service.ResidentService, logger *zap.Logger) *ResidentHandler {
	return &ResidentHandler{residentService: residentService, logger: logger}
}

func (h *ResidentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == residentsPath:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListResidents(w, r)
	case path == residentsPath+"/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportResidents(w, r)
	case strings.HasSuffix(path, "/approve"):
		h.action(w, r, path, "/approve", h.ApproveVerification)
	case strings.HasSuffix(path, "/deny"):
		h.action(w, r, path, "/deny", h.DenyVerification)
	case strings.HasSuffix(path, "/disable"):
		h.action(w, r, path, "/disable", h.DisableResident)
	default:
		id, ok := pathID(path, residentsPath+"/", "")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.GetResident(w, r, id)
		case http.MethodPut:
			h.UpdateResident(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func (h *ResidentHandler) action(w http.ResponseWriter, r *http.Request, path, suffix string, fn func(http.ResponseWriter, *http.Request, string)) {
	id, ok := pathID(path, residentsPath+"/", suffix)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fn(w, r, id)
}

func scopeOf(r *http.Request) backend.Scope {
	if strings.EqualFold(r.URL.Query().Get("scope"), string(backend.ScopeStaff)) {
		return backend.ScopeStaff
	}
	return backend.ScopeAdmin
}

func filterOf(r *http.Request) service.ResidentFilter {
	q := r.URL.Query()
	return service.ResidentFilter{
		Search: q.Get("search"),
		Status: strings.TrimSpace(q.Get("status")),
		Role:   strings.TrimSpace(q.Get("role")),
	}
}

func (h *ResidentHandler) ListResidents(w http.ResponseWriter, r *http.Request) {
	resp, err := h.residentService.ListResidents(requestContext(r), service.ListResidentsRequest{
		Scope:   scopeOf(r),
		Session: sessionOf(r),
		Filter:  filterOf(r),
		Page:    parseInt(r.URL.Query().Get("page"), 1),
		Size:    parseInt(r.URL.Query().Get("size"), 0),
	})
	if err != nil {
		writeError(w, h.logger, "ListResidents", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *ResidentHandler) ExportResidents(w http.ResponseWriter, r *http.Request) {
	format, ok := export.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		writeJSON(w, http.StatusOK, FailField("format", "Unsupported export format"))
		return
	}
	file, err := h.residentService.ExportResidents(requestContext(r), service.ExportResidentsRequest{
		Scope:  scopeOf(r),
		Filter: filterOf(r),
		Format: format,
	})
	if err != nil {
		writeError(w, h.logger, "ExportResidents", err)
		return
	}
	writeFile(w, file.Name, file.ContentType, file.Data)
}

func (h *ResidentHandler) GetResident(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.residentService.GetResident(requestContext(r), id)
	if err != nil {
		writeError(w, h.logger, "GetResident", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *ResidentHandler) UpdateResident(w http.ResponseWriter, r *http.Request, id string) {
	var fields map[string]any
	if err := readBodyJSON(r, 1<<20, &fields); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	item, err := h.residentService.UpdateResident(requestContext(r), id, fields)
	if err != nil {
		writeError(w, h.logger, "UpdateResident", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *ResidentHandler) ApproveVerification(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.residentService.ApproveVerification(requestContext(r), id)
	if err != nil {
		writeError(w, h.logger, "ApproveVerification", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *ResidentHandler) DenyVerification(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		Comment string `json:"comment"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	item, err := h.residentService.DenyVerification(requestContext(r), id, payload.Comment)
	if err != nil {
		writeError(w, h.logger, "DenyVerification", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

func (h *ResidentHandler) DisableResident(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		DisableReason string `json:"disable_reason"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	item, err := h.residentService.DisableResident(requestContext(r), id, payload.DisableReason)
	if err != nil {
		writeError(w, h.logger, "DisableResident", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
