package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateFuncs returns the functions available to page templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}
}

// Renderer holds one parsed template set per page, each cloned from the layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded layout and pages.
func NewRenderer() (*Renderer, error) {
	base, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, page := range pages {
		name := page.Name()
		if name == "layout.html" {
			continue
		}

		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone template for %s: %w", name, err)
		}
		if tmpl, err = tmpl.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}

		templates[name[:len(name)-len(".html")]] = tmpl
	}

	return &Renderer{templates: templates}, nil
}

// Render executes the layout for the named page into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// RenderHTTP renders into a buffer first so a template error still yields a clean 500.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, logger *slog.Logger, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		logger.Error("render failed", "template", name, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
