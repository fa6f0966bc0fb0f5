package handler

import (
	"errors"
	"net/http"
	"net/url"

	"fandango/domain"

	"github.com/labstack/echo/v4"
)

func (h *Handler) signupEnabled() bool {
	return h.isDev() || h.EnableSignup
}

func (h *Handler) GetLoginForm(c echo.Context) error {
	data := h.newPage(c)
	data.Next = safeNext(c.QueryParam("next"))
	data.Form = map[string]string{}
	return c.Render(http.StatusOK, "login.html", data)
}

func (h *Handler) Login(c echo.Context) error {
	formUsername := c.FormValue("username")
	formPassword := c.FormValue("password")
	next := safeNext(c.FormValue("next"))

	fail := func(code int, msg string) error {
		data := h.newPage(c)
		data.Next = next
		data.Form = map[string]string{"username": formUsername}
		data.Errors = domain.ValidationErrors{"form": msg}
		return c.Render(code, "login.html", data)
	}

	if len(formUsername) == 0 || len(formPassword) == 0 {
		return fail(http.StatusBadRequest, "Enter a username and a password.")
	}

	user, hash, err := h.Store.Credentials(c.Request().Context(), formUsername)
	if err == nil {
		err = domain.CheckPassword(hash, formPassword)
	}
	if err == nil && !user.IsActive {
		err = domain.ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.Logger().Infof("failed login for %q", formUsername)
			return fail(http.StatusBadRequest, "Wrong username or password.")
		}
		return err
	}

	cookie, err := AuthorizationCookie(user, h.JWTSecret, !h.isDev())
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	if next != "" {
		return c.Redirect(http.StatusFound, next)
	}
	return c.Redirect(http.StatusFound, "/accounts/done/"+url.PathEscape(user.Username))
}

func (h *Handler) GetSignupForm(c echo.Context) error {
	if !h.signupEnabled() {
		return echo.NewHTTPError(http.StatusForbidden, "Sign up has been disabled.")
	}
	data := h.newPage(c)
	data.Form = map[string]string{}
	return c.Render(http.StatusOK, "signup.html", data)
}

// Signup creates an active pegosteador and logs it in.
func (h *Handler) Signup(c echo.Context) error {
	if !h.signupEnabled() {
		return echo.NewHTTPError(http.StatusForbidden, "Sign up has been disabled.")
	}

	username := c.FormValue("username")
	password := c.FormValue("password")

	errs := domain.ValidationErrors{}
	if err := domain.ValidateUsername(username); err != nil {
		errs["username"] = err.Error()
	}
	if err := domain.ValidatePassword(password); err != nil {
		errs["password"] = err.Error()
	} else if password != c.FormValue("password2") {
		errs["password2"] = "The two password fields didn't match."
	}

	rerender := func(code int) error {
		data := h.newPage(c)
		data.Form = map[string]string{"username": username}
		data.Errors = errs
		return c.Render(code, "signup.html", data)
	}
	if len(errs) > 0 {
		return rerender(http.StatusBadRequest)
	}

	hash, err := domain.HashPassword(password)
	if err != nil {
		return err
	}
	user, err := h.Store.CreateUser(c.Request().Context(), username, hash, domain.AuthorsGroup)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			errs["username"] = "A user with that username already exists."
			return rerender(http.StatusConflict)
		}
		return err
	}
	c.Logger().Infof("new pegosteador %q", user.Username)

	cookie, err := AuthorizationCookie(user, h.JWTSecret, !h.isDev())
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	return c.Redirect(http.StatusFound, "/accounts/done/"+url.PathEscape(user.Username))
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(expiredCookie())
	return c.Redirect(http.StatusFound, "/")
}

// RedirectAuth is where account actions land: the user's own page when a
// username is given, the home page otherwise.
func (h *Handler) RedirectAuth(c echo.Context) error {
	if username := c.Param("username"); username != "" {
		return c.Redirect(http.StatusFound, domain.AuthorURL(username))
	}
	return c.Redirect(http.StatusFound, "/")
}

// Pegosteadores lists the active members of the authors group.
func (h *Handler) Pegosteadores(c echo.Context) error {
	users, err := h.Store.ActivePegosteadores(c.Request().Context())
	if err != nil {
		return err
	}

	data := h.newPage(c)
	data.Pegosteadores = users
	return c.Render(http.StatusOK, "pegosteadores.html", data)
}
