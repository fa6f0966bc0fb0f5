package handler

import (
	"net/http"

	"fandango/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Handler struct {
	Store        *store.Store
	JWTSecret    string
	EnableSignup bool
	Environment  string
}

const DevEnv = "dev"

func (h *Handler) isDev() bool {
	return h.Environment == DevEnv
}

// Register mounts every page on e. Routes are canonical without a trailing
// slash; "/alice/" is redirected to "/alice".
func (h *Handler) Register(e *echo.Echo) {
	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))
	e.Use(h.Authenticate())

	e.GET("/", h.Home)
	e.GET("/pegosteadores", h.Pegosteadores)
	e.GET("/pegoste/:pk", h.RedirectSlugPegoste)

	e.GET("/login", h.GetLoginForm)
	e.POST("/login", h.Login)
	e.GET("/signup", h.GetSignupForm)
	e.POST("/signup", h.Signup)
	e.GET("/logout", h.Logout)
	e.GET("/accounts/done", h.RedirectAuth)
	e.GET("/accounts/done/:username", h.RedirectAuth)

	e.GET("/:username", h.PegosteadorHome)
	e.GET("/:username/pegostes", h.Pegostes)
	e.GET("/:username/pegoste/:slug", h.PegosteView)

	e.GET("/:username/pegostes/new", h.AddPegosteForm, h.RequireLogin)
	e.POST("/:username/pegostes/new", h.AddPegoste, h.RequireLogin)
	e.GET("/:username/pegoste/:slug/edit", h.UpdatePegosteForm, h.RequireLogin)
	e.POST("/:username/pegoste/:slug/edit", h.UpdatePegoste, h.RequireLogin)
}
