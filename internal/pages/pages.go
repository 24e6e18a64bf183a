// Package pages serves the static frontend: four server-rendered pages and
// the script that talks to the JSON endpoints.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/cardiolens/cardiolens-backend/pkg/httputil"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names, matching templates/<name>.html
const (
	PageIndex    = "index"
	PageAbout    = "about"
	PageAnalyser = "analyser"
	PageContact  = "contact"
)

var titles = map[string]string{
	PageIndex:    "Home",
	PageAbout:    "About",
	PageAnalyser: "Analyser",
	PageContact:  "Contact",
}

type flag struct {
	Name  string
	Label string
}

type pageData struct {
	Title string
	Year  int
	Flags []flag
}

// Handler renders the embedded pages
type Handler struct {
	pages map[string]*template.Template
	log   *logger.Logger
}

// NewHandler parses every page template once.
func NewHandler(log *logger.Logger) (*Handler, error) {
	h := &Handler{
		pages: make(map[string]*template.Template, len(titles)),
		log:   log,
	}
	for name := range titles {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		h.pages[name] = t
	}
	return h, nil
}

// Page returns the handler for GET /<name>
func (h *Handler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := h.pages[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		data := pageData{
			Title: titles[name],
			Year:  time.Now().Year(),
			Flags: []flag{
				{Name: "smoke", Label: "Smoker"},
				{Name: "alco", Label: "Alcohol intake"},
				{Name: "active", Label: "Physically active"},
			},
		}

		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
			h.log.Error().Err(err).Str("page", name).Msg("failed to render page")
			httputil.Error(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// Static serves the embedded assets. Mount it at /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
