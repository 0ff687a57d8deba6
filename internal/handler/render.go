package handler

import (
    "embed"
    "fmt"
    "html/template"
    "io"
    "io/fs"
    "path"

    "github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
    "money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
    "deref": func(p *int) int {
        if p == nil {
            return 0
        }
        return *p
    },
}

// Renderer renders page templates inside the shared layout.  It
// implements echo.Renderer.
type Renderer struct {
    pages map[string]*template.Template
}

// NewRenderer parses every page template with the layout.
func NewRenderer() (*Renderer, error) {
    files, err := fs.Glob(templateFS, "templates/*.html")
    if err != nil {
        return nil, err
    }
    r := &Renderer{pages: make(map[string]*template.Template)}
    for _, f := range files {
        name := path.Base(f)
        if name == "layout.html" {
            continue
        }
        t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", f)
        if err != nil {
            return nil, fmt.Errorf("parse %s: %w", name, err)
        }
        r.pages[name[:len(name)-len(".html")]] = t
    }
    return r, nil
}

// Render executes page name with data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
    t, ok := r.pages[name]
    if !ok {
        return fmt.Errorf("unknown page %q", name)
    }
    return t.ExecuteTemplate(w, "layout", data)
}
