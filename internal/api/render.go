package api

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/labstack/echo/v4"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "views/layout.html"

// Renderer implements echo.Renderer with one template set per page, each
// made of the shared layout plus the page's "title" and "content" blocks.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page. Page names are relative to the
// views directory, e.g. "admin/list.html".
func NewRenderer() (*Renderer, error) {
	funcs := sprig.HtmlFuncMap()
	funcs["hasRole"] = hasRole

	r := &Renderer{pages: map[string]*template.Template{}}
	err := fs.WalkDir(viewsFS, "views", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == layoutFile || path.Ext(p) != ".html" {
			return nil
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(viewsFS, layoutFile, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[strings.TrimPrefix(p, "views/")] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// staticFiles holds the embedded stylesheets under /css.
func staticFiles() fs.FS {
	return echo.MustSubFS(staticFS, "static/css")
}

// hasRole reports whether a role list contains name. Templates use it to
// pre-check role boxes.
func hasRole(roles []string, name string) bool {
	return slices.Contains(roles, name)
}
