// Package web renders the site's HTML pages and handles the demo wizard's
// form posts.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/heartguard-ai-go/internal/catalog"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages rendered by the handler. Each one is parsed with the shared layout.
var pageNames = []string{"landing", "data", "training", "demo", "error"}

// Wizard is the subset of wizard.Controller the pages drive.
type Wizard interface {
	Snapshot(ctx context.Context, id string) (wizard.State, error)
	SetFields(ctx context.Context, id string, values map[models.Field]float64) (wizard.State, error)
	Next(ctx context.Context, id string) (wizard.State, error)
	Prev(ctx context.Context, id string) (wizard.State, error)
	Modify(ctx context.Context, id string) (wizard.State, error)
	Reset(ctx context.Context, id string) (wizard.State, error)
	Submit(ctx context.Context, id string) (wizard.State, error)
	Retry(ctx context.Context, id string) (wizard.State, error)
	LoadPreset(ctx context.Context, id, presetID string) (wizard.State, error)
	RefreshHealth(ctx context.Context, id string) (wizard.State, error)
}

// ModelsSource lists the models loaded by the scoring service.
type ModelsSource interface {
	Models(ctx context.Context) (models.ModelsInfo, error)
}

// Charts writes a chart page.
type Charts interface {
	Render(w io.Writer, name string, result *models.PredictionResult) error
}

// Handler serves the HTML pages.
type Handler struct {
	catalog *catalog.Catalog
	wizard  Wizard
	models  ModelsSource
	charts  Charts
	logger  *logrus.Logger
	pages   map[string]*template.Template
}

// NewHandler parses the embedded templates. models may be nil, which hides
// the live models table.
func NewHandler(c *catalog.Catalog, w Wizard, m ModelsSource, charts Charts, logger *logrus.Logger) (*Handler, error) {
	if logger == nil {
		logger = logrus.New()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handler{
		catalog: c,
		wizard:  w,
		models:  m,
		charts:  charts,
		logger:  logger,
		pages:   pages,
	}, nil
}

func parsePages() (map[string]*template.Template, error) {
	base, err := template.New("layout").Funcs(templateFuncs()).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// StaticFS returns the embedded stylesheet directory.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

type navItem struct {
	Href  string
	Label string
}

var navItems = []navItem{
	{Href: "/", Label: "The problem"},
	{Href: "/data", Label: "The data"},
	{Href: "/training", Label: "Training"},
	{Href: "/demo", Label: "AI diagnosis"},
}

// layoutData is what the shared layout reads. Page holds the page's own
// view model.
type layoutData struct {
	Title      string
	Active     string
	Nav        []navItem
	Disclaimer string
	Refresh    int
	Page       any
}

func (h *Handler) render(c *gin.Context, status int, name, title string, page any) {
	h.renderRefresh(c, status, name, title, page, 0)
}

func (h *Handler) renderRefresh(c *gin.Context, status int, name, title string, page any, refresh int) {
	t, ok := h.pages[name]
	if !ok {
		h.logger.WithField("page", name).Error("Unknown page template")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	data := layoutData{
		Title:      title,
		Active:     c.Request.URL.Path,
		Nav:        navItems,
		Disclaimer: h.catalog.Disclaimer,
		Refresh:    refresh,
		Page:       page,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.WithError(err).WithField("page", name).Error("Failed to render page")
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

type errorPage struct {
	Status  int
	Heading string
	Message string
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	h.render(c, status, "error", http.StatusText(status), errorPage{
		Status:  status,
		Heading: http.StatusText(status),
		Message: message,
	})
}
