package handler

import (
	"context"

	"fandango/domain"

	"github.com/labstack/echo/v4"
)

const (
	lastPegosteadosLimit  = 5
	topPegosteadoresLimit = 5
	recentPegostesLimit   = 5
)

// PageData is the template context shared by every page. Not every page
// fills every field.
type PageData struct {
	CurrentUser   *Identity
	SignupEnabled bool

	LastPegosteados  []domain.Pegoste
	TopPegosteadores []domain.User

	Username         string
	AuthorHome       bool
	PegosteUpdatable bool
	RecentPegostes   []domain.Pegoste

	Pegoste       *domain.Pegoste
	Pegostes      []domain.Pegoste
	Pegosteadores []domain.User

	AddUpdate     bool
	AddUpdateView string
	Action        string
	Form          map[string]string
	Errors        domain.ValidationErrors
	Next          string
}

func (h *Handler) newPage(c echo.Context) PageData {
	data := PageData{SignupEnabled: h.signupEnabled()}
	if ident, ok := CurrentUser(c); ok {
		data.CurrentUser = &ident
	}
	return data
}

// withGlobals adds the site wide sidebars. They are queried on every
// request.
func (h *Handler) withGlobals(ctx context.Context, data *PageData) error {
	var err error
	data.LastPegosteados, err = h.Store.LastPegosteados(ctx, lastPegosteadosLimit)
	if err != nil {
		return err
	}
	data.TopPegosteadores, err = h.Store.TopPegosteadores(ctx, topPegosteadoresLimit)
	return err
}

// withAuthor adds the per author context of the pegoste pages.
func (h *Handler) withAuthor(ctx context.Context, data *PageData, username string) error {
	data.Username = username
	data.PegosteUpdatable = data.CurrentUser != nil && data.CurrentUser.Username == username

	var err error
	data.RecentPegostes, err = h.Store.RecentPegostes(ctx, username, recentPegostesLimit)
	return err
}
