package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var printTemplate = template.Must(template.New("residents").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Residents Report</title>
<style>
body { font-family: Arial, sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #333; padding: 4px 6px; text-align: left; }
th { background: #e6f3ff; }
@media print { button { display: none; } }
</style>
</head>
<body onload="window.print()">
<h2>Residents Report</h2>
<p>Generated {{.Generated}} &middot; {{len .Rows}} record(s)</p>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .Values}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// WritePrintable HTML report the console opens in a print window
func WritePrintable(rows []Row, generated time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := printTemplate.Execute(&buf, struct {
		Generated string
		Header    []string
		Rows      []Row
	}{
		Generated: generated.Format("January 2, 2006 3:04 PM"),
		Header:    Header,
		Rows:      rows,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render printable report: %w", err)
	}
	return buf.Bytes(), nil
}
