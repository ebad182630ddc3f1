package http

import (
	"net/http"
	"strconv"
	"strings"

	"cartao/internal/core"
)

type purchasesPage struct {
	Title     string
	Purchases []core.Purchase
	People    []core.Person
	PersonID  string
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID := strings.TrimSpace(r.URL.Query().Get("personId"))

	purchases, err := s.purchases.List(ctx, personID, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	people, err := s.people.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "purchases.html", purchasesPage{
		Title:     "Compras",
		Purchases: purchases,
		People:    people,
		PersonID:  personID,
	})
}

type purchaseNewPage struct {
	Title           string
	People          []core.Person
	Today           core.Date
	MaxInstallments int
}

func (s *Server) handleNewPurchase(w http.ResponseWriter, r *http.Request) {
	people, err := s.people.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "purchase_new.html", purchaseNewPage{
		Title:           "Nova compra",
		People:          people,
		Today:           core.Today(s.clock),
		MaxInstallments: s.purchases.MaxInstallments(),
	})
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	in, err := parsePurchaseForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.purchases.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/purchases/"+p.ID)
}

func parsePurchaseForm(r *http.Request) (core.PurchaseInput, error) {
	in := core.PurchaseInput{
		PersonID:    sanitizeInput(r.PostForm.Get("personId")),
		Description: sanitizeInput(r.PostForm.Get("description")),
	}

	date, err := core.ParseDate(r.PostForm.Get("purchaseDate"))
	if err != nil {
		return in, err
	}
	in.PurchaseDate = date

	amount, err := core.ParseAmount(r.PostForm.Get("totalAmount"))
	if err != nil {
		return in, err
	}
	in.TotalAmount = amount

	count, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("installmentsCount")))
	if err != nil {
		return in, core.ErrInvalidInstallments
	}
	in.InstallmentsCount = count
	return in, nil
}

type purchaseDetailPage struct {
	Title    string
	Purchase core.Purchase
}

func (s *Server) handlePurchaseDetail(w http.ResponseWriter, r *http.Request) {
	p, err := s.purchases.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, "purchase_detail.html", purchaseDetailPage{Title: "Compra", Purchase: p})
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := s.purchases.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	redirect(w, r, "/purchases")
}
