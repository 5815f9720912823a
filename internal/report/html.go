package report

import (
	"embed"
	"html/template"
	"io"

	"github.com/gyeh/sonobill/internal/normalize"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var page = template.Must(template.New("report.html.tmpl").
	Funcs(template.FuncMap{"brl": normalize.BRL}).
	ParseFS(templateFS, "templates/report.html.tmpl"))

// Page is the data behind the HTML report page.
type Page struct {
	Report     *Report
	ShowHints  bool   // render the export links block, hidden when printing
	CanExport  bool   // export preconditions hold
	ExportHint string // shown when CanExport is false
}

// WriteHTML renders the report page.
func WriteHTML(w io.Writer, p Page) error {
	return page.Execute(w, p)
}
