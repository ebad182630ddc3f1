package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie holding the JWT.
const CookieName = "auth_token"

type contextKey struct{}

// Session issues, reads and clears the session cookie.
type Session struct {
	jwt    *JWTManager
	secure bool
}

func NewSession(jwt *JWTManager, secureCookie bool) *Session {
	return &Session{jwt: jwt, secure: secureCookie}
}

// SignIn sets a fresh session cookie for login.
func (s *Session) SignIn(w http.ResponseWriter, login string) error {
	token, err := s.jwt.Generate(login)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.jwt.TokenDuration() / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SignOut clears the session cookie.
func (s *Session) SignOut(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Claims returns the validated claims of the request's session cookie.
func (s *Session) Claims(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrMissingToken
	}
	return s.jwt.Validate(cookie.Value)
}

// Require rejects requests without a valid session. Page requests are
// redirected to /login, API and HTMX requests get 401. Paths with one of the
// public prefixes pass through.
func (s *Session) Require(publicPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range publicPrefixes {
				if r.URL.Path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(r.URL.Path, p)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			claims, err := s.Claims(r)
			if err != nil {
				if err != ErrMissingToken {
					slog.WarnContext(r.Context(), "Rejected session cookie", "error", err, "path", r.URL.Path)
					s.SignOut(w)
				}
				if strings.HasPrefix(r.URL.Path, "/api/") || r.Header.Get("HX-Request") == "true" {
					if r.Header.Get("HX-Request") == "true" {
						w.Header().Set("HX-Redirect", "/login")
					}
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the session claims stored by Require.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}
