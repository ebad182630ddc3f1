package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type loginPage struct {
	Title string
	Login string
	Next  string
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.Claims(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", loginPage{Title: "Entrar", Next: safeNext(r.URL.Query().Get("next"))})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}
	login := parser.Get("login")
	password := parser.Get("password")
	next := safeNext(parser.Get("next"))

	if err := s.credentials.Authenticate(login, password); err != nil {
		slog.WarnContext(r.Context(), "Login failed",
			"login", login,
			"client_ip", s.detector.ClientIP(r))
		s.renderTemplate(w, r, "login.html", "layout", http.StatusUnauthorized, loginPage{
			Title: "Entrar",
			Login: login,
			Next:  next,
			Error: "Usuário ou senha inválidos",
		})
		return
	}

	if err := s.session.SignIn(w, login); err != nil {
		s.writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Login succeeded", "login", login)
	redirect(w, r, next)
}

func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	msg := "Muitas tentativas de login, aguarde um minuto"
	ErrorResponse(http.StatusTooManyRequests, msg).TriggerErrorNotification(msg).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.SignOut(w)
	redirect(w, r, "/login")
}

// safeNext only allows local absolute paths as post-login targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/dashboard"
	}
	return next
}
