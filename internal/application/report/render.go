package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/pending.html.tmpl
var pendingTemplate string

// HTMLRenderer renders the pending report as a standalone HTML document
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the report template with the formatter's helpers
func NewHTMLRenderer(f *Formatter) (*HTMLRenderer, error) {
	tmpl, err := template.New("pending").Funcs(template.FuncMap{
		"usd":  f.USD,
		"ves":  f.VES,
		"date": f.Date,
		"code": f.Code,
	}).Parse(pendingTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse pending template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render writes the report to w
func (r *HTMLRenderer) Render(w io.Writer, report *PendingReport) error {
	return r.tmpl.Execute(w, report)
}

// RenderBytes renders the report into memory
func (r *HTMLRenderer) RenderBytes(report *PendingReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
