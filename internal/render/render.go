// Package render is the template boundary: it turns a template name and
// bindings into an HTML byte stream and knows nothing about the domain.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer renders the embedded page templates.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{templates: templates}, nil
}

// Render executes the named template with the given bindings.
func (r *Renderer) Render(w io.Writer, name string, bindings any) error {
	if err := r.templates.ExecuteTemplate(w, name+".html", bindings); err != nil {
		return fmt.Errorf("render %q: %w", name, err)
	}

	return nil
}
