package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/export"

	"go.uber.org/zap"
)

// SessionHeader identifies one console tab; its list fetches supersede each other
const SessionHeader = "X-Console-Session"

// InvalidReceiptMessage inline message for a rejected receipt number
const InvalidReceiptMessage = "Invalid receipt number. Please check the number printed on your receipt and try again."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// requestContext forwards the caller's bearer token to the backend
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && strings.TrimSpace(token) != "" {
		ctx = backend.WithAuthToken(ctx, strings.TrimSpace(token))
	}
	return ctx
}

func sessionOf(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

// pathID returns the single segment between prefix and suffix
func pathID(path, prefix, suffix string) (string, bool) {
	// prefix and suffix must not overlap, so "/residents/approve" has no id
	if len(path) <= len(prefix)+len(suffix) ||
		!strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := path[len(prefix) : len(path)-len(suffix)]
	if strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// writeError maps err onto the three error surfaces: cancelled requests are
// answered quietly, validation failures name their field, everything else
// carries the server's message or the generic fallback.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	var exportErr *export.ValidationError
	switch {
	case errors.Is(err, export.ErrNoData):
		writeJSON(w, http.StatusOK, Notice("No data to export"))
		return
	case errors.As(err, &exportErr):
		writeJSON(w, http.StatusOK, Fail(exportErr.Error()))
		return
	}

	switch backend.Classify(err) {
	case backend.KindCancelled:
		logger.Debug(op+" cancelled", zap.Error(err))
		writeJSON(w, http.StatusOK, Cancelled())
	case backend.KindValidation:
		var verr *backend.ValidationError
		errors.As(err, &verr)
		writeJSON(w, http.StatusOK, FailField(verr.Field, verr.Message))
	default:
		if backend.IsInvalidReceipt(err) {
			writeJSON(w, http.StatusOK, FailField("receipt_number", InvalidReceiptMessage))
			return
		}
		logger.Error(op+" failed", zap.Error(err))
		status := http.StatusOK
		if backend.IsNotFound(err) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, Fail(backend.UserMessage(err, backend.GenericErrorMessage)))
	}
}

func writeFile(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
