package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/datenav"
	"mainichinihongo.app/web/internal/format"
	"mainichinihongo.app/web/internal/i18n"
	"mainichinihongo.app/web/internal/observability"
)

// templateSet holds one clone per page (each page defines its own "content"
// block) plus the shared set that fragments execute from.
type templateSet struct {
	pages  map[string]*template.Template
	shared *template.Template
}

type renderer struct {
	dir   string
	dev   bool
	funcs template.FuncMap

	mu    sync.RWMutex
	cache *templateSet
}

// newRenderer parses templates once. In dev mode they are reparsed on each render.
func newRenderer(dir string, dev bool, bundle *i18n.Bundle) (*renderer, error) {
	rd := &renderer{dir: dir, dev: dev, funcs: templateFuncs(bundle)}
	set, err := rd.parse()
	if err != nil {
		return nil, err
	}
	rd.cache = set
	return rd, nil
}

func templateFuncs(bundle *i18n.Bundle) template.FuncMap {
	return template.FuncMap{
		"t":  bundle.T,
		"tf": bundle.Tf,
		"fmtCount": func(n any, lang string) string {
			switch v := n.(type) {
			case int:
				return format.FmtCount(v, lang)
			case int64:
				return format.FmtCount(int(v), lang)
			default:
				return fmt.Sprint(n)
			}
		},
		"fmtDate": func(id, lang string) string {
			t, ok := datenav.Parse(id)
			if !ok {
				return id
			}
			return format.FmtDate(t, lang)
		},
		"displayDate": datenav.Display,
		"truncate":    format.Truncate,
		"add":         func(a, b int) int { return a + b },
		"year":        func() int { return time.Now().Year() },
	}
}

func (rd *renderer) parse() (*templateSet, error) {
	var shared, pages []string
	if err := filepath.WalkDir(rd.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) == "pages" {
			pages = append(pages, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(shared) == 0 || len(pages) == 0 {
		return nil, fmt.Errorf("render: no templates found under %s", rd.dir)
	}

	base, err := template.New("_root").Funcs(rd.funcs).ParseFiles(shared...)
	if err != nil {
		return nil, fmt.Errorf("render: parse shared templates: %w", err)
	}
	set := &templateSet{pages: make(map[string]*template.Template, len(pages)), shared: base}
	for _, p := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFiles(p); err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", p, err)
		}
		set.pages[strings.TrimSuffix(filepath.Base(p), ".tmpl")] = clone
	}
	return set, nil
}

func (rd *renderer) templates() (*templateSet, error) {
	if rd.dev {
		return rd.parse()
	}
	rd.mu.RLock()
	defer rd.mu.RUnlock()
	if rd.cache == nil {
		return nil, fmt.Errorf("render: templates not initialized")
	}
	return rd.cache, nil
}

// renderPage executes the base layout with the named page's content block.
func (rd *renderer) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	set, err := rd.templates()
	if err != nil {
		rd.fail(w, r, err)
		return
	}
	t, ok := set.pages[name]
	if !ok {
		rd.fail(w, r, fmt.Errorf("render: unknown page %q", name))
		return
	}
	rd.execute(w, r, status, t, "base", data)
}

// renderTemplate executes a single fragment, for htmx swaps.
func (rd *renderer) renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	set, err := rd.templates()
	if err != nil {
		rd.fail(w, r, err)
		return
	}
	rd.execute(w, r, status, set.shared, name, data)
}

func (rd *renderer) execute(w http.ResponseWriter, r *http.Request, status int, t *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		rd.fail(w, r, fmt.Errorf("render: execute %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rd *renderer) fail(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).Error("template render failed", zap.Error(err))
	msg := "template error"
	if rd.dev {
		msg = err.Error()
	}
	http.Error(w, msg, http.StatusInternalServerError)
}
