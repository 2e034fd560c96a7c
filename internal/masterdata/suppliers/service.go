package suppliers

import (
	"context"
	"errors"
	"strings"

	mdshared "github.com/nutri-erp/nutri-erp/internal/masterdata/shared"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Supplier, error) {
	if filters.Status != nil && !mdshared.ValidStatus(*filters.Status) {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	sup, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Supplier{}, shared.NotFoundf("supplier %d", id)
	}
	return sup, err
}

// Exists reports whether the supplier id is registered. Used by the ledgers.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Supplier, error) {
	sup := Supplier{
		Name:   strings.TrimSpace(req.Name),
		CNPJ:   shared.DigitsOnly(req.CNPJ),
		Status: mdshared.StatusActive,
	}
	apply(&sup.Address, req.Address)
	apply(&sup.Phone, req.Phone)
	apply(&sup.Email, req.Email)
	apply(&sup.Contact, req.Contact)
	apply(&sup.Status, req.Status)
	apply(&sup.Notes, req.Notes)
	if err := s.validate(sup); err != nil {
		return Supplier{}, err
	}
	if err := s.ensureCNPJFree(ctx, sup.CNPJ, 0); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, sup)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Supplier, error) {
	sup, err := s.Get(ctx, id)
	if err != nil {
		return Supplier{}, err
	}
	apply(&sup.Name, req.Name)
	if req.CNPJ != nil {
		sup.CNPJ = shared.DigitsOnly(*req.CNPJ)
	}
	apply(&sup.Address, req.Address)
	apply(&sup.Phone, req.Phone)
	apply(&sup.Email, req.Email)
	apply(&sup.Contact, req.Contact)
	apply(&sup.Status, req.Status)
	apply(&sup.Notes, req.Notes)
	if err := s.validate(sup); err != nil {
		return Supplier{}, err
	}
	if err := s.ensureCNPJFree(ctx, sup.CNPJ, sup.ID); err != nil {
		return Supplier{}, err
	}
	updated, err := s.repo.Update(ctx, sup)
	if errors.Is(err, ErrNotFound) {
		return Supplier{}, shared.NotFoundf("supplier %d", id)
	}
	return updated, err
}

// Delete deactivates the supplier; invoices and contracts keep referencing it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.SetStatus(ctx, id, mdshared.StatusInactive)
	if errors.Is(err, ErrNotFound) {
		return shared.NotFoundf("supplier %d", id)
	}
	return err
}

func (s *Service) ensureCNPJFree(ctx context.Context, cnpj string, selfID int64) error {
	existing, err := s.repo.FindByCNPJ(ctx, cnpj)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return shared.Duplicatef("cnpj %s already registered", cnpj)
	}
	return nil
}
