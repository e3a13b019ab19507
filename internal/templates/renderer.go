// Package templates loads and executes the XML document templates this
// server serves: device description, SCPD documents, SOAP envelopes and
// DIDL-Lite item/container fragments.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"net/http"
	"path/filepath"
	"text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

// required lists every template this server depends on; NewRenderer
// fails fast if any is missing so a packaging mistake surfaces at
// startup rather than mid-request.
var required = []string{
	"device_description.xml",
	"content_scpd.xml",
	"connection_scpd.xml",
	"browse_response.xml",
	"browse_fault.xml",
	"search_caps.xml",
	"sort_caps.xml",
	"protocol_info.xml",
	"connection_ids.xml",
	"connection_info.xml",
	"didl_item.xml",
	"didl_container.xml",
}

// Renderer holds every parsed template, keyed by file name.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every file under templates/ and verifies that the
// required set is present.
func NewRenderer() (*Renderer, error) {
	tmpls, err := loadTemplates(templateFS)
	if err != nil {
		return nil, err
	}
	for _, name := range required {
		if _, ok := tmpls[name]; !ok {
			return nil, fmt.Errorf("missing required template: %s", name)
		}
	}
	return &Renderer{templates: tmpls}, nil
}

func loadTemplates(tfs embed.FS) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template)

	entries, err := tfs.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := tfs.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		tmpl, err := template.New(entry.Name()).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		out[entry.Name()] = tmpl
	}
	return out, nil
}

// RenderTo executes the named template into buf, without touching any
// HTTP response — used to build a fragment (e.g. a DIDL item) that's
// embedded in a larger document before it's escaped and written out.
func (r *Renderer) RenderTo(buf *bytes.Buffer, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	return tmpl.Execute(buf, data)
}

// Render executes the named template directly to an HTTP response,
// setting Content-Type from the file extension and a Date header.
func (r *Renderer) Render(w http.ResponseWriter, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	contentType := "text/plain; charset=utf-8"
	if filepath.Ext(name) == ".xml" {
		contentType = "text/xml; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Date", time.Now().UTC().Format(http.TimeFormat))

	return tmpl.Execute(w, data)
}
