package inputs

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	mdshared "github.com/nutri-erp/nutri-erp/internal/masterdata/shared"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements input registry rules.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService constructs Service. audit may be nil.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns inputs ordered by name.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Input, error) {
	if filters.Status != nil && !mdshared.ValidStatus(*filters.Status) {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.List(ctx, filters)
}

// Get loads one input.
func (s *Service) Get(ctx context.Context, id int64) (Input, error) {
	in, err := s.repo.Get(ctx, id)
	if errors.Is(err, errNoRows) {
		return Input{}, shared.NotFoundf("input %d", id)
	}
	return in, err
}

// Create registers a new input. The code must be unique.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Input, error) {
	in := Input{
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		Unit:         strings.TrimSpace(req.Unit),
		Description:  deref(req.Description),
		Category:     deref(req.Category),
		Notes:        deref(req.Notes),
		Status:       mdshared.StatusActive,
		MinimumStock: decimal.Zero,
		CurrentStock: decimal.Zero,
	}
	if req.MinimumStock != nil {
		in.MinimumStock = *req.MinimumStock
	}
	if req.CurrentStock != nil {
		in.CurrentStock = *req.CurrentStock
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if err := validate(in); err != nil {
		return Input{}, err
	}
	if err := s.ensureCodeFree(ctx, in.Code, 0); err != nil {
		return Input{}, err
	}
	created, err := s.repo.Create(ctx, in)
	if err != nil {
		return Input{}, err
	}
	s.record(ctx, "input.create", created)
	return created, nil
}

// Update applies the supplied fields. Current stock is never touched here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Input, error) {
	in, err := s.Get(ctx, id)
	if err != nil {
		return Input{}, err
	}
	if req.Code != nil {
		in.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		in.Name = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		in.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Category != nil {
		in.Category = *req.Category
	}
	if req.MinimumStock != nil {
		in.MinimumStock = *req.MinimumStock
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	if err := validate(in); err != nil {
		return Input{}, err
	}
	if err := s.ensureCodeFree(ctx, in.Code, in.ID); err != nil {
		return Input{}, err
	}
	updated, err := s.repo.Update(ctx, in)
	if errors.Is(err, errNoRows) {
		return Input{}, shared.NotFoundf("input %d", id)
	}
	if err != nil {
		return Input{}, err
	}
	s.record(ctx, "input.update", updated)
	return updated, nil
}

// Delete deactivates the input.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.SetStatus(ctx, id, mdshared.StatusInactive)
	if errors.Is(err, errNoRows) {
		return shared.NotFoundf("input %d", id)
	}
	if err != nil {
		return err
	}
	s.record(ctx, "input.deactivate", Input{ID: id})
	return nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code string, selfID int64) error {
	existing, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, errNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return shared.Duplicatef("input code %q already exists", code)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, in Input) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "input",
		EntityID: formatID(in.ID),
		Meta:     map[string]any{"code": in.Code},
	})
}
