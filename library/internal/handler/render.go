package handler

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-records/library/internal/model"
)

//go:embed templates
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer executes one template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	},
	"datep": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.DateOnly)
	},
	"overdue": func(l model.Loan, today time.Time) bool {
		return l.Overdue(today)
	},
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == layoutFile || path.Ext(p) != ".html" {
			return err
		}
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(templateFS, layoutFile, p)
		if err != nil {
			return errors.Wrapf(err, "parse %s", p)
		}
		r.pages[strings.TrimPrefix(p, "templates/")] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
