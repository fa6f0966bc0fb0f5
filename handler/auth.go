package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fandango/domain"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	cookieName  = "Authorization"
	identityKey = "identity"
	tokenTTL    = 7 * 24 * time.Hour
)

// Claims carried by the authorization cookie. Subject is the user ID.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is the authenticated requester.
type Identity struct {
	UserID   string
	Username string
}

// Authenticate parses the authorization cookie when present. It never rejects
// a request: without a valid token the request is simply anonymous.
func (h *Handler) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(h.JWTSecret),
		SigningMethod: echojwt.AlgorithmHS256,
		TokenLookup:   "cookie:" + cookieName,
		ContextKey:    identityKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Debugf("anonymous request: %v", err)
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// CurrentUser returns the requester's identity, if authenticated.
func CurrentUser(c echo.Context) (Identity, bool) {
	token, ok := c.Get(identityKey).(*jwt.Token)
	if !ok || !token.Valid {
		return Identity{}, false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.Username == "" {
		return Identity{}, false
	}
	return Identity{UserID: claims.Subject, Username: claims.Username}, true
}

// RequireLogin sends anonymous requests to the login page, remembering
// where they were going.
func (h *Handler) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		if _, ok := CurrentUser(c); !ok {
			return c.Redirect(http.StatusFound, loginURL(c.Request().URL.RequestURI()))
		}
		return next(c)
	}
}

// requireOwner loads the requester's account and checks it is the
// pegosteador named in the URL.
func (h *Handler) requireOwner(c echo.Context, username string) (domain.User, error) {
	ident, ok := CurrentUser(c)
	if !ok || ident.Username != username {
		return domain.User{}, echo.NewHTTPError(http.StatusForbidden, "only "+username+" can write here")
	}

	user, err := h.Store.UserByID(c.Request().Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, echo.NewHTTPError(http.StatusForbidden, "account no longer exists")
		}
		return domain.User{}, err
	}
	if !user.IsActive || user.Username != username {
		return domain.User{}, echo.NewHTTPError(http.StatusForbidden, "account is not allowed to write here")
	}
	return user, nil
}

func loginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

// safeNext only lets local absolute paths through.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

// AuthorizationCookie issues the signed identity cookie for user.
func AuthorizationCookie(user domain.User, secret string, secure bool) (*http.Cookie, error) {
	if secret == "" {
		return nil, errors.New("missing secret")
	}

	now := time.Now()
	exp := now.Add(tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-1 * time.Second),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
