package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
	"github.com/NordCoder/storefront-auth/internal/obs"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type SessionManager interface {
	Issue(ctx context.Context, id session.Identity) (session.TokenPair, error)
	VerifyAccess(ctx context.Context, token string) (session.Identity, error)
	Rotate(ctx context.Context, refresh string) (session.TokenPair, error)
	RevokeOne(ctx context.Context, refresh string) error
	RevokeAll(ctx context.Context, subjectID int64) (int64, error)
	Sessions(ctx context.Context, subjectID int64) ([]session.Info, error)
}

var _ SessionManager = (*Usecase)(nil)

type Server struct {
	log          *zap.Logger
	uc           SessionManager
	cookieDomain string
	cookiePath   string
	cookieSecure bool
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

type Opts struct {
	Logger       *zap.Logger
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func NewServer(uc SessionManager, o Opts) *Server {
	path := o.CookiePath
	if path == "" {
		path = "/"
	}
	return &Server{
		log:          obs.OrNop(o.Logger),
		uc:           uc,
		cookieDomain: o.CookieDomain,
		cookiePath:   path,
		cookieSecure: o.CookieSecure,
		accessTTL:    o.AccessTTL,
		refreshTTL:   o.RefreshTTL,
	}
}

func (s *Server) Register(e *echo.Echo) {
	guard := AccessGuard(s.uc.VerifyAccess)

	g := e.Group("/v1/auth")
	g.POST("/refresh", s.Refresh)
	g.POST("/logout", s.Logout)
	g.POST("/logout-all", s.LogoutAll, guard)
	g.GET("/sessions", s.Sessions, guard)
	g.GET("/me", s.Me, guard)

	admin := e.Group("/v1/admin", guard, RoleGuard(session.RoleAdmin))
	admin.POST("/users/:id/logout-all", s.ForceLogout)
}

type accessResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// StartSession issues a fresh pair for id and sets both cookies. Login and
// registration handlers call it once the credentials check out.
func (s *Server) StartSession(c echo.Context, id session.Identity) error {
	pair, err := s.uc.Issue(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, "auth.start_session", err)
	}
	s.setCookies(c, pair)
	return c.JSON(http.StatusOK, accessResponse{AccessToken: pair.AccessToken, ExpiresIn: int64(s.accessTTL.Seconds())})
}

func (s *Server) Refresh(c echo.Context) error {
	raw := refreshToken(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, errorJSON("refresh token missing"))
	}

	pair, err := s.uc.Rotate(c.Request().Context(), raw)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			s.clearCookies(c)
		}
		return s.fail(c, "auth.refresh", err)
	}

	s.setCookies(c, pair)
	return c.JSON(http.StatusOK, accessResponse{AccessToken: pair.AccessToken, ExpiresIn: int64(s.accessTTL.Seconds())})
}

func (s *Server) Logout(c echo.Context) error {
	raw := refreshToken(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, errorJSON("refresh token missing"))
	}
	if err := s.uc.RevokeOne(c.Request().Context(), raw); err != nil {
		return s.fail(c, "auth.logout", err)
	}
	s.clearCookies(c)
	return c.NoContent(http.StatusOK)
}

func (s *Server) LogoutAll(c echo.Context) error {
	id, _ := IdentityFrom(c)
	n, err := s.uc.RevokeAll(c.Request().Context(), id.ID)
	if err != nil {
		return s.fail(c, "auth.logout_all", err)
	}
	s.clearCookies(c)
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (s *Server) Sessions(c echo.Context) error {
	id, _ := IdentityFrom(c)
	list, err := s.uc.Sessions(c.Request().Context(), id.ID)
	if err != nil {
		return s.fail(c, "auth.sessions", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) Me(c echo.Context) error {
	id, _ := IdentityFrom(c)
	return c.JSON(http.StatusOK, id)
}

func (s *Server) ForceLogout(c echo.Context) error {
	subject, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || subject <= 0 {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid user id"))
	}
	n, err := s.uc.RevokeAll(c.Request().Context(), subject)
	if err != nil {
		return s.fail(c, "auth.force_logout", err)
	}

	admin, _ := IdentityFrom(c)
	obs.WithTrace(c.Request().Context(), s.log).Info("auth.force_logout",
		zap.Int64("admin_id", admin.ID),
		zap.Int64("subject_id", subject),
		zap.Int64("deleted", n),
	)
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

func (s *Server) fail(c echo.Context, op string, err error) error {
	status, msg := mapErr(err)
	if status >= http.StatusInternalServerError {
		obs.WithTrace(c.Request().Context(), s.log).Error(op, zap.Error(err))
	}
	return c.JSON(status, errorJSON(msg))
}

func mapErr(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrInputMissing):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func refreshToken(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (s *Server) setCookies(c echo.Context, pair session.TokenPair) {
	c.SetCookie(s.cookie(AccessCookie, pair.AccessToken, s.accessTTL))
	c.SetCookie(s.cookie(RefreshCookie, pair.RefreshToken, s.refreshTTL))
}

func (s *Server) clearCookies(c echo.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := s.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0).UTC()
		c.SetCookie(ck)
	}
}

func (s *Server) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}
}
