package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/service"

	"go.uber.org/zap"
)

const (
	benefitsPath = "/api/v1/benefits"
	programsPath = "/api/v1/programs"
)

// BenefitHandler resident benefits, tracking, receipts and program pages
type BenefitHandler struct {
	benefitService service.BenefitService
	logger         *zap.Logger
}

func NewBenefitHandler(benefitService service.BenefitService, logger *zap.Logger) *BenefitHandler {
	return &BenefitHandler{benefitService: benefitService, logger: logger}
}

func (h *BenefitHandler) ServeBenefits(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == benefitsPath && r.Method == http.MethodGet:
		h.MyBenefits(w, r)
	case strings.HasSuffix(path, "/tracking") && r.Method == http.MethodGet:
		if id, ok := pathID(path, benefitsPath+"/", "/tracking"); ok {
			h.GetTracking(w, r, id)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case strings.HasSuffix(path, "/receipt") && r.Method == http.MethodPost:
		if id, ok := pathID(path, benefitsPath+"/", "/receipt"); ok {
			h.SubmitReceipt(w, r, id)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *BenefitHandler) ServePrograms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if id, ok := pathID(path, programsPath+"/", "/announcements"); ok {
		h.ProgramAnnouncements(w, r, id)
		return
	}
	if id, ok := pathID(path, programsPath+"/", "/application-forms"); ok {
		h.ApplicationForms(w, r, id)
		return
	}
	if id, ok := pathID(path, programsPath+"/", ""); ok {
		h.Program(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *BenefitHandler) MyBenefits(w http.ResponseWriter, r *http.Request) {
	out, err := h.benefitService.MyBenefits(requestContext(r))
	if err != nil {
		writeError(w, h.logger, "MyBenefits", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *BenefitHandler) GetTracking(w http.ResponseWriter, r *http.Request, id string) {
	view, err := h.benefitService.GetTracking(requestContext(r), id)
	if err != nil {
		writeError(w, h.logger, "GetTracking", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// SubmitReceipt multipart form: receipt_number, comment, assistance_type, proof_file
func (h *BenefitHandler) SubmitReceipt(w http.ResponseWriter, r *http.Request, id string) {
	// room for the 10 MiB proof plus the text parts; size is enforced by the service
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxProofSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusOK, FailField("proof_file", "File size must not exceed 10MB"))
			return
		}
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form"))
		return
	}

	sub := service.ReceiptSubmission{
		Comment:        r.FormValue("comment"),
		AssistanceType: r.FormValue("assistance_type"),
	}
	if vals, ok := r.MultipartForm.Value["receipt_number"]; ok && len(vals) > 0 {
		v := vals[0]
		sub.ReceiptNumber = &v
	}
	if fh, ok := r.MultipartForm.File["proof_file"]; ok && len(fh) > 0 {
		f, err := fh[0].Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid proof file"))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid proof file"))
			return
		}
		sub.Proof = &backend.UploadFile{
			Name:        fh[0].Filename,
			ContentType: fh[0].Header.Get("Content-Type"),
			Data:        data,
		}
	}

	view, err := h.benefitService.SubmitReceipt(requestContext(r), id, sub)
	if err != nil {
		writeError(w, h.logger, "SubmitReceipt", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

func (h *BenefitHandler) Program(w http.ResponseWriter, r *http.Request, id string) {
	out, err := h.benefitService.Program(requestContext(r), id)
	if err != nil {
		writeError(w, h.logger, "Program", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *BenefitHandler) ProgramAnnouncements(w http.ResponseWriter, r *http.Request, id string) {
	out, err := h.benefitService.ProgramAnnouncements(requestContext(r), id)
	if err != nil {
		writeError(w, h.logger, "ProgramAnnouncements", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *BenefitHandler) ApplicationForms(w http.ResponseWriter, r *http.Request, id string) {
	out, err := h.benefitService.ApplicationForms(requestContext(r), id)
	if err != nil {
		writeError(w, h.logger, "ApplicationForms", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
