package http

import (
	"net/http"

	"cartao/internal/core"
)

type peoplePage struct {
	Title  string
	People []core.Person
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	people, err := s.people.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "people.html", peoplePage{Title: "Pessoas", People: people})
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if _, err := s.people.Create(r.Context(), sanitizeInput(r.PostForm.Get("name"))); err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/people")
}

type personEditPage struct {
	Title  string
	Person core.Person
}

func (s *Server) handleEditPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.people.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "person_edit.html", personEditPage{Title: "Editar pessoa", Person: p})
}

func (s *Server) handleRenamePerson(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if _, err := s.people.Rename(r.Context(), r.PathValue("id"), sanitizeInput(r.PostForm.Get("name"))); err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/people")
}

// handleDeletePerson removes the person with all purchases and installments.
func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.people.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/people")
}
