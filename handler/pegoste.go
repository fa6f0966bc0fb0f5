package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fandango/domain"

	"github.com/labstack/echo/v4"
)

// datetime-local inputs, read as UTC
const (
	formDateLayout      = "2006-01-02T15:04:05"
	formDateShortLayout = "2006-01-02T15:04"
)

func (h *Handler) Home(c echo.Context) error {
	data := h.newPage(c)
	if err := h.withGlobals(c.Request().Context(), &data); err != nil {
		return err
	}
	return c.Render(http.StatusOK, "home.html", data)
}

// Pegostes lists every pegoste of a pegosteador. Unknown usernames get an
// empty list.
func (h *Handler) Pegostes(c echo.Context) error {
	username := c.Param("username")

	pegostes, err := h.Store.PegostesByAuthor(c.Request().Context(), username)
	if err != nil {
		return err
	}

	data := h.newPage(c)
	data.Username = username
	data.Pegostes = pegostes
	return c.Render(http.StatusOK, "pegostes.html", data)
}

// PegosteView shows one pegoste, looked up by slug among the pegostes of
// the given author only.
func (h *Handler) PegosteView(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.Param("username")

	p, err := h.Store.PegosteBySlug(ctx, username, c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	data := h.newPage(c)
	data.Pegoste = &p
	if err := h.withGlobals(ctx, &data); err != nil {
		return err
	}
	if err := h.withAuthor(ctx, &data, username); err != nil {
		return err
	}
	return c.Render(http.StatusOK, "pegoste_view.html", data)
}

// PegosteadorHome is the author's landing page: their latest pegoste, or
// an empty page when they have not published anything yet.
func (h *Handler) PegosteadorHome(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.Param("username")

	if _, err := h.Store.UserByUsername(ctx, username); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	data := h.newPage(c)
	data.AuthorHome = true

	p, ok, err := h.Store.LatestPegoste(ctx, username)
	if err != nil {
		return err
	}
	if ok {
		data.Pegoste = &p
	}
	if err := h.withGlobals(ctx, &data); err != nil {
		return err
	}
	if err := h.withAuthor(ctx, &data, username); err != nil {
		return err
	}
	return c.Render(http.StatusOK, "pegoste_view.html", data)
}

// RedirectSlugPegoste sends /pegoste/<id> to the canonical slug URL.
func (h *Handler) RedirectSlugPegoste(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("pk"), 10, 64)
	if err != nil || id <= 0 {
		return echo.ErrNotFound
	}

	p, err := h.Store.PegosteByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	return c.Redirect(http.StatusMovedPermanently, p.URL())
}

func (h *Handler) AddPegosteForm(c echo.Context) error {
	username := c.Param("username")
	if _, err := h.requireOwner(c, username); err != nil {
		return err
	}

	form := map[string]string{
		"publish_date": time.Now().UTC().Format(formDateLayout),
	}
	return h.renderPegosteForm(c, http.StatusOK, username, false, form, nil)
}

// AddPegoste publishes a pegoste as the logged in pegosteador.
func (h *Handler) AddPegoste(c echo.Context) error {
	username := c.Param("username")
	author, err := h.requireOwner(c, username)
	if err != nil {
		return err
	}

	p := domain.Pegoste{AuthorID: author.ID, Author: author.Username}
	form, errs := bindPegoste(c, &p)
	if len(errs) > 0 {
		return h.renderPegosteForm(c, http.StatusUnprocessableEntity, username, false, form, errs)
	}

	if err := h.Store.CreatePegoste(c.Request().Context(), &p); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			form["slug"] = p.Slug
			errs = domain.ValidationErrors{"slug": "You already have a pegoste with this slug."}
			return h.renderPegosteForm(c, http.StatusUnprocessableEntity, username, false, form, errs)
		}
		return err
	}
	c.Logger().Infof("%s published %q", username, p.Slug)

	return c.Redirect(http.StatusFound, p.URL())
}

func (h *Handler) UpdatePegosteForm(c echo.Context) error {
	username := c.Param("username")
	if _, err := h.requireOwner(c, username); err != nil {
		return err
	}

	p, err := h.Store.PegosteBySlug(c.Request().Context(), username, c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	form := map[string]string{
		"title":        p.Title,
		"slug":         p.Slug,
		"body":         p.Body,
		"publish_date": formatFormDate(p.PublishDate),
	}
	return h.renderPegosteForm(c, http.StatusOK, username, true, form, nil)
}

// UpdatePegoste rewrites a pegoste of the logged in pegosteador. Changing
// the slug moves the pegoste to a new URL.
func (h *Handler) UpdatePegoste(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.Param("username")
	if _, err := h.requireOwner(c, username); err != nil {
		return err
	}

	p, err := h.Store.PegosteBySlug(ctx, username, c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	form, errs := bindPegoste(c, &p)
	if len(errs) > 0 {
		return h.renderPegosteForm(c, http.StatusUnprocessableEntity, username, true, form, errs)
	}

	if err := h.Store.UpdatePegoste(ctx, &p); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			form["slug"] = p.Slug
			errs = domain.ValidationErrors{"slug": "You already have a pegoste with this slug."}
			return h.renderPegosteForm(c, http.StatusUnprocessableEntity, username, true, form, errs)
		}
		return err
	}
	c.Logger().Infof("%s updated %q", username, p.Slug)

	return c.Redirect(http.StatusFound, p.URL())
}

// bindPegoste copies the submitted fields into p and validates them. The
// returned form echoes the submission back for re-rendering.
func bindPegoste(c echo.Context, p *domain.Pegoste) (map[string]string, domain.ValidationErrors) {
	form := map[string]string{
		"title":        c.FormValue("title"),
		"slug":         c.FormValue("slug"),
		"body":         c.FormValue("body"),
		"publish_date": c.FormValue("publish_date"),
	}

	p.Title = form["title"]
	p.Slug = form["slug"]
	p.Body = form["body"]

	errs := domain.ValidationErrors{}
	if err := p.Validate(); err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			errs = verrs
		}
	}

	// a blank or unchanged date keeps the current one, a blank date on a
	// new pegoste means now
	date := form["publish_date"]
	switch {
	case date == "" && p.PublishDate.IsZero():
		p.PublishDate = time.Now().UTC()
	case date == "" || date == formatFormDate(p.PublishDate):
	default:
		t, err := parseFormDate(date)
		if err != nil {
			errs["publish_date"] = "Enter a valid date/time."
		}
		p.PublishDate = t
	}

	return form, errs
}

func formatFormDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(formDateLayout)
}

func parseFormDate(s string) (time.Time, error) {
	for _, layout := range []string{formDateLayout, formDateShortLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) renderPegosteForm(c echo.Context, code int, username string, update bool, form map[string]string, errs domain.ValidationErrors) error {
	ctx := c.Request().Context()

	data := h.newPage(c)
	data.AddUpdate = true
	data.Form = form
	data.Errors = errs
	if update {
		data.AddUpdateView = "Update Pegoste"
		data.Action = c.Request().URL.Path
	} else {
		data.AddUpdateView = "Add Pegoste"
		data.Action = domain.AuthorURL(username) + "/pegostes/new"
	}

	if err := h.withGlobals(ctx, &data); err != nil {
		return err
	}
	if err := h.withAuthor(ctx, &data, username); err != nil {
		return err
	}
	return c.Render(code, "add_update_pegoste.html", data)
}
