package http

import (
	"net/http"

	"cartao/internal/services"
)

type dashboardPage struct {
	Title string
	services.Dashboard
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "dashboard.html", dashboardPage{Title: "Painel", Dashboard: d})
}
