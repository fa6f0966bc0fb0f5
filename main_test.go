package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fandango/domain"
	"fandango/handler"
	"fandango/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadConfig(t *testing.T) {
	t.Run("dev defaults", func(t *testing.T) {
		cfg, err := loadConfig(nil, env(map[string]string{"ENV": "dev"}))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Addr != ":8080" || cfg.JWTSecret != "unsecure" || cfg.DBPath != "./fandango.db" || cfg.LogLevel != log.INFO {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("pro needs a secret", func(t *testing.T) {
		if _, err := loadConfig(nil, env(nil)); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("pro", func(t *testing.T) {
		cfg, err := loadConfig(nil, env(map[string]string{
			"JWT_SECRET":     "s3cret",
			"ENABLE_SIGNUP":  "true",
			"WHITELIST_HOST": "fandango.example",
			"LOG_LEVEL":      "warn",
		}))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Env != PRO_ENV || cfg.Addr != "" || !cfg.EnableSignup || cfg.LogLevel != log.WARN {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.CertCacheDir != "/var/www/.cache" || cfg.WhitelistHost != "fandango.example" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("flags win", func(t *testing.T) {
		cfg, err := loadConfig(
			[]string{"--addr", ":9000", "--db", "/tmp/x.db", "--seed", "fixtures.yaml", "--migrate-only"},
			env(map[string]string{"ENV": "dev", "ADDRESS_LISTEN": ":7000", "DB_URL": "/tmp/env.db"}),
		)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Addr != ":9000" || cfg.DBPath != "/tmp/x.db" || cfg.Seed != "fixtures.yaml" || !cfg.MigrateOnly {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	for name, vars := range map[string]map[string]string{
		"unknown env":       {"ENV": "staging", "JWT_SECRET": "x"},
		"unknown log level": {"ENV": "dev", "LOG_LEVEL": "chatty"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := loadConfig(nil, env(vars)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	t.Run("unknown flag", func(t *testing.T) {
		if _, err := loadConfig([]string{"--nope"}, env(map[string]string{"ENV": "dev"})); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestTemplates(t *testing.T) {
	reg, err := newTemplateRegistry(templatesFS)
	if err != nil {
		t.Fatal(err)
	}

	p := domain.Pegoste{
		ID:          1,
		Author:      "alice",
		Slug:        "hello",
		Title:       "Hello <there>",
		Body:        "# Hi\n\n*body*<script>alert(1)</script>",
		PublishDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	alice := domain.User{Username: "alice", IsActive: true, PegosteCount: 1}
	full := handler.PageData{
		CurrentUser:      &handler.Identity{UserID: "id", Username: "alice"},
		SignupEnabled:    true,
		LastPegosteados:  []domain.Pegoste{p},
		TopPegosteadores: []domain.User{alice},
		Username:         "alice",
		PegosteUpdatable: true,
		RecentPegostes:   []domain.Pegoste{p},
		Pegoste:          &p,
		Pegostes:         []domain.Pegoste{p},
		Pegosteadores:    []domain.User{alice},
		AddUpdate:        true,
		AddUpdateView:    "Add Pegoste",
		Action:           "/alice/pegostes/new",
		Form:             map[string]string{"title": "t", "username": "alice"},
		Errors:           domain.ValidationErrors{"title": "bad title", "form": "bad form"},
		Next:             "/alice",
	}
	empty := handler.PageData{}

	e := echo.New()
	for _, name := range []string{
		"home.html", "pegosteadores.html", "pegostes.html", "pegoste_view.html",
		"add_update_pegoste.html", "login.html", "signup.html",
	} {
		for label, data := range map[string]handler.PageData{"full": full, "empty": empty} {
			var buf bytes.Buffer
			if err := reg.Render(&buf, name, data, e.NewContext(nil, nil)); err != nil {
				t.Errorf("%s (%s): %v", name, label, err)
				continue
			}
			out := buf.String()
			if !strings.Contains(out, "<!DOCTYPE html>") {
				t.Errorf("%s (%s): base layout missing", name, label)
			}
			if strings.Contains(out, "<script>") {
				t.Errorf("%s (%s): unescaped script", name, label)
			}
		}
	}

	var buf bytes.Buffer
	if err := reg.Render(&buf, "missing.html", empty, nil); err == nil {
		t.Error("expected an error for an unknown template")
	}
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	reg, err := newTemplateRegistry(templatesFS)
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	e.Renderer = reg
	e.HTTPErrorHandler = customHTTPErrorHandler
	e.GET("/forbidden", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "only alice can write here")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("database exploded")
	})

	tests := []struct {
		target string
		code   int
		text   string
	}{
		{"/nowhere", http.StatusNotFound, "Not Found"},
		{"/forbidden", http.StatusForbidden, "only alice can write here"},
		{"/boom", http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: status %d, want %d", tt.target, rec.Code, tt.code)
		}
		if body := rec.Body.String(); !strings.Contains(body, tt.text) || strings.Contains(body, "exploded") {
			t.Errorf("%s: body %q", tt.target, body)
		}
	}
}

func TestSeedLogsSkippedUsers(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(context.Background(), filepath.Join(dir, "fandango.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	file := filepath.Join(dir, "seed.yaml")
	fixtures := "pegosteadores:\n  - username: alice\n    password: correct-horse\n"
	if err := os.WriteFile(file, []byte(fixtures), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	e := echo.New()
	e.Logger.SetOutput(&buf)
	e.Logger.SetLevel(log.INFO)

	if err := seed(context.Background(), st, file, e.Logger); err != nil {
		t.Fatalf("seed() = %v", err)
	}
	if strings.Contains(buf.String(), "already exists") {
		t.Errorf("first load reported skipped users: %s", buf.String())
	}

	buf.Reset()
	if err := seed(context.Background(), st, file, e.Logger); err != nil {
		t.Fatalf("second seed() = %v", err)
	}
	if !strings.Contains(buf.String(), "user alice already exists") {
		t.Errorf("skipped user not logged: %s", buf.String())
	}

	if err := seed(context.Background(), st, filepath.Join(dir, "missing.yaml"), e.Logger); err == nil {
		t.Error("expected an error for a missing file")
	}
}
