package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"fandango/domain"
	"fandango/handler"
	"fandango/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/acme/autocert"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets
var assetsFS embed.FS

type TemplateRegistry struct {
	templates map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"markdown":  handler.SafeMarkdown,
	"excerpt":   func(s string) string { return handler.Excerpt(s, 200) },
	"authorURL": domain.AuthorURL,
	"date":      func(t time.Time) string { return t.Format("2 Jan 2006 15:04") },
}

// newTemplateRegistry parses every page in templates/ together with base.html.
func newTemplateRegistry(fsys fs.FS) (*TemplateRegistry, error) {
	pages, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}

	t := map[string]*template.Template{}
	for _, page := range pages {
		name := path.Base(page)
		if name == "base.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, "templates/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		t[name] = tmpl
	}
	return &TemplateRegistry{templates: t}, nil
}

func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.New("template not found: " + name)
	}

	// render fully first so a failing template does not leave half a page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.LogLevel)

	e.Logger.Info("Running database schema migrations...")
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	defer st.Close()

	if cfg.Seed != "" {
		if err := seed(ctx, st, cfg.Seed, e.Logger); err != nil {
			return err
		}
	}
	if cfg.MigrateOnly {
		return nil
	}

	renderer, err := newTemplateRegistry(templatesFS)
	if err != nil {
		return err
	}
	e.Renderer = renderer

	// Fancy error pages
	e.HTTPErrorHandler = customHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `${time_rfc3339} ${id} ${remote_ip} ${method} ${uri} ${status} ${latency_human}` + "\n",
	}))
	e.Use(middleware.Secure())

	static, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return err
	}
	e.StaticFS("/static", static)

	h := handler.Handler{
		Store:        st,
		JWTSecret:    cfg.JWTSecret,
		EnableSignup: cfg.EnableSignup,
		Environment:  cfg.Env,
	}
	h.Register(e)

	if cfg.Addr == "" {
		e.AutoTLSManager.Cache = autocert.DirCache(cfg.CertCacheDir)
		if cfg.WhitelistHost != "" {
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(cfg.WhitelistHost)
		}
		e.Pre(middleware.HTTPSRedirect())
	}

	errc := make(chan error, 1)
	go func() {
		if cfg.Addr != "" {
			errc <- e.Start(cfg.Addr)
			return
		}
		errc <- e.StartAutoTLS(":443")
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	e.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func seed(ctx context.Context, st *store.Store, file string, logger echo.Logger) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	sum, err := st.LoadFixtures(ctx, f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", file, err)
	}
	for _, username := range sum.SkippedUsernames {
		logger.Infof("seed %s: user %s already exists, skipped", file, username)
	}
	logger.Infof("seeded %s: %d users (%d skipped), %d pegostes (%d skipped)",
		file, sum.Users, sum.SkippedUsers, sum.Pegostes, sum.SkippedPegostes)
	return nil
}

type errorPage struct {
	handler.PageData
	Code    int
	Message string
}

func customHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = http.StatusText(code)
		if m, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			msg = m
		}
	}
	if code != http.StatusNotFound {
		c.Logger().Error(err)
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(code); err != nil {
			c.Logger().Error(err)
		}
		return
	}

	page := errorPage{Code: code, Message: msg}
	if ident, ok := handler.CurrentUser(c); ok {
		page.CurrentUser = &ident
	}
	if err := c.Render(code, "error.html", page); err != nil {
		c.Logger().Error(err)
		if err := c.String(code, msg); err != nil {
			c.Logger().Error(err)
		}
	}
}
