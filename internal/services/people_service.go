package services

import (
	"context"
	"fmt"
	"log/slog"

	"cartao/internal/amqp"
	"cartao/internal/core"
	"cartao/internal/storage"
)

type PeopleService struct {
	repo     *storage.SQLiteRepository
	receipts *Receipts
}

func NewPeopleService(repo *storage.SQLiteRepository, receipts *Receipts) *PeopleService {
	return &PeopleService{repo: repo, receipts: receipts}
}

func (s *PeopleService) Create(ctx context.Context, name string) (core.Person, error) {
	name, err := core.ValidatePersonName(name)
	if err != nil {
		return core.Person{}, err
	}
	return s.repo.CreatePerson(ctx, name)
}

func (s *PeopleService) Rename(ctx context.Context, id, name string) (core.Person, error) {
	if id == "" {
		return core.Person{}, core.ErrMissingID
	}
	name, err := core.ValidatePersonName(name)
	if err != nil {
		return core.Person{}, err
	}
	return s.repo.RenamePerson(ctx, id, name)
}

func (s *PeopleService) Get(ctx context.Context, id string) (core.Person, error) {
	return s.repo.GetPerson(ctx, id)
}

func (s *PeopleService) List(ctx context.Context) ([]core.Person, error) {
	return s.repo.ListPeople(ctx)
}

// Delete removes the person with all their purchases and installments, then
// releases the receipts that belonged only to them.
func (s *PeopleService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrMissingID
	}
	orphaned, err := s.repo.DeletePerson(ctx, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if len(orphaned) > 0 {
		slog.InfoContext(ctx, "Releasing receipts of deleted person", "person_id", id, "count", len(orphaned))
		s.receipts.Release(ctx, orphaned, amqp.ReasonPersonDeleted)
	}
	return nil
}
