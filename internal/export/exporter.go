package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"

	"go.uber.org/zap"
)

// Format export file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPrint Format = "html"
)

// ParseFormat accepts a few aliases the console has used
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, true
	case "xlsx", "excel", "xls":
		return FormatExcel, true
	case "html", "pdf", "print":
		return FormatPrint, true
	}
	return "", false
}

// File generated export
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter builds export files and reports outcomes through a Notifier
type Exporter struct {
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewExporter(notifier notify.Notifier, logger *zap.Logger) *Exporter {
	return &Exporter{notifier: notifier, logger: logger, now: time.Now}
}

// Export returns ErrNoData for an empty set and *ValidationError for a bad row;
// both are reported to the notifier and no file is produced.
func (e *Exporter) Export(ctx context.Context, format Format, residents []*domain.Resident) (*File, error) {
	now := e.now()
	rows, err := BuildRows(residents, now)
	if err != nil {
		e.Report(ctx, err)
		return nil, err
	}

	var data []byte
	var contentType, ext string
	switch format {
	case FormatCSV:
		data, err = WriteCSV(rows)
		contentType, ext = "text/csv; charset=utf-8", "csv"
	case FormatExcel:
		data, err = WriteExcel(rows)
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	case FormatPrint:
		data, err = WritePrintable(rows, now)
		contentType, ext = "text/html; charset=utf-8", "html"
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		e.logger.Error("Export failed", zap.String("format", string(format)), zap.Error(err))
		e.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Export failed", Message: err.Error()})
		return nil, err
	}

	e.logger.Info("Residents exported",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
	)
	return &File{
		Name:        fmt.Sprintf("residents_%s.%s", now.Format("2006-01-02"), ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Report sends the notice for ErrNoData or a *ValidationError; other errors are ignored
func (e *Exporter) Report(ctx context.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNoData):
		e.notifier.Notify(ctx, notify.Notice{Level: notify.LevelInfo, Title: "Export", Message: "No data to export"})
	case errors.As(err, &verr):
		e.logger.Warn("Export aborted", zap.Int("row", verr.Row), zap.String("reason", verr.Reason))
		e.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, Title: "Export failed", Message: verr.Error()})
	}
}
