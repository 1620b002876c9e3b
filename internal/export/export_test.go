package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

func newTestExporter() (*Exporter, *notify.Recorder) {
	rec := notify.NewRecorder(0)
	e := NewExporter(rec, zap.NewNop())
	e.now = func() time.Time { return fixedNow }
	return e, rec
}

func sampleResidents() []*domain.Resident {
	return []*domain.Resident{
		{
			ResidentID:   "R-0001",
			FirstName:    "Juan",
			MiddleName:   "Santos",
			LastName:     "Dela Cruz",
			NameSuffix:   "Jr.",
			Email:        "juan@example.com",
			LastModified: strPtr("2024-12-01"),
			ForReview:    true,
		},
		{
			ResidentID:   "R-0002",
			FirstName:    `Maria "Mia"`,
			LastName:     "Reyes, Jr",
			NameSuffix:   "none",
			Email:        "mia@example.com",
			LastModified: strPtr("2024-05-01"),
		},
		{
			ResidentID: "R-0003",
			FirstName:  "Line\nBreak",
		},
	}
}

func TestExportCSV_RoundTrip(t *testing.T) {
	e, _ := newTestExporter()
	residents := sampleResidents()

	file, err := e.Export(context.Background(), FormatCSV, residents)
	require.NoError(t, err)
	assert.Equal(t, "residents_2025-01-15.csv", file.Name)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(residents)+1)
	assert.Equal(t, Header, records[0])

	for i, r := range residents {
		rec := records[i+1]
		assert.Equal(t, r.ResidentID, rec[0])
		assert.Equal(t, r.FullName(), rec[1])
		assert.Equal(t, yesNo(bool(r.ForReview)), rec[4])
		assert.Equal(t, string(domain.Classify(r, fixedNow)), rec[3])
	}
	assert.Contains(t, string(file.Data), `"Maria ""Mia"" Reyes, Jr"`)
	assert.True(t, strings.HasSuffix(string(file.Data), "\r\n"))
}

func TestExport_EmptyNotifiesAndProducesNoFile(t *testing.T) {
	e, rec := newTestExporter()

	file, err := e.Export(context.Background(), FormatCSV, nil)
	assert.Nil(t, file)
	assert.ErrorIs(t, err, ErrNoData)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelInfo, notices[0].Level)
}

func TestExport_MalformedRowAbortsWholeExport(t *testing.T) {
	e, rec := newTestExporter()
	residents := append(sampleResidents(), nil)

	file, err := e.Export(context.Background(), FormatExcel, residents)
	assert.Nil(t, file)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 4, verr.Row)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.LevelError, rec.Notices()[0].Level)
}

func TestDecodeResidents_RejectsNonObject(t *testing.T) {
	_, err := DecodeResidents([]json.RawMessage{json.RawMessage(`{"resident_id":"R-1"}`), json.RawMessage(`42`)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, verr.Row)

	got, err := DecodeResidents([]json.RawMessage{json.RawMessage(`{"resident_id":"R-1"}`)})
	require.NoError(t, err)
	assert.Equal(t, "R-1", got[0].ResidentID)
}

func TestExportExcel_Workbook(t *testing.T) {
	e, _ := newTestExporter()
	file, err := e.Export(context.Background(), FormatExcel, sampleResidents())
	require.NoError(t, err)
	assert.Equal(t, "residents_2025-01-15.xlsx", file.Name)

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Resident ID", rows[0][0])
	assert.Equal(t, "Juan Santos Dela Cruz Jr.", rows[1][1])
	assert.Equal(t, "Outdated", rows[2][3])
}

func TestExportPrintable_EscapesHTML(t *testing.T) {
	e, _ := newTestExporter()
	residents := []*domain.Resident{{ResidentID: "R-9", FirstName: "<script>alert(1)</script>"}}

	file, err := e.Export(context.Background(), FormatPrint, residents)
	require.NoError(t, err)
	body := string(file.Data)
	assert.Contains(t, body, "R-9")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "Needs Verification")
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("Excel")
	assert.True(t, ok)
	assert.Equal(t, FormatExcel, f)
	f, ok = ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)
	f, ok = ParseFormat("pdf")
	assert.True(t, ok)
	assert.Equal(t, FormatPrint, f)
	_, ok = ParseFormat("docx")
	assert.False(t, ok)
}
