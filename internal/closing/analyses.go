package closing

import (
	"context"
	"encoding/json"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// GetAnalysis returns one comparative analysis.
func (s *Service) GetAnalysis(ctx context.Context, id int64) (Analysis, error) {
	a, err := s.repo.GetAnalysis(ctx, id)
	return a, notFound(err, "analysis %d", id)
}

// ListAnalyses returns analyses, newest start date first.
func (s *Service) ListAnalyses(ctx context.Context, filters AnalysisFilters) ([]Analysis, error) {
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListAnalyses(ctx, filters)
}

// CreateAnalysis stores a comparative analysis.
func (s *Service) CreateAnalysis(ctx context.Context, input AnalysisInput) (Analysis, error) {
	a := Analysis{
		Title:      input.Title,
		Kind:       input.Kind,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Parameters: input.Parameters,
		Results:    input.Results,
		Notes:      deref(input.Notes),
	}
	if err := validateAnalysis(a); err != nil {
		return Analysis{}, err
	}
	created, err := s.repo.InsertAnalysis(ctx, a)
	if err != nil {
		return Analysis{}, err
	}
	s.record(ctx, "analysis.create", "analysis", created.ID, map[string]any{"kind": created.Kind})
	return created, nil
}

// UpdateAnalysis applies the supplied fields.
func (s *Service) UpdateAnalysis(ctx context.Context, id int64, input UpdateAnalysisInput) (Analysis, error) {
	a, err := s.GetAnalysis(ctx, id)
	if err != nil {
		return Analysis{}, err
	}
	if input.Title != nil {
		a.Title = *input.Title
	}
	if input.Kind != nil {
		a.Kind = *input.Kind
	}
	if input.StartDate != nil {
		a.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		a.EndDate = *input.EndDate
	}
	if input.Parameters != nil {
		a.Parameters = *input.Parameters
	}
	if input.Results != nil {
		a.Results = *input.Results
	}
	if input.Notes != nil {
		a.Notes = *input.Notes
	}
	if err := validateAnalysis(a); err != nil {
		return Analysis{}, err
	}
	updated, err := s.repo.UpdateAnalysis(ctx, a)
	if err != nil {
		return Analysis{}, notFound(err, "analysis %d", id)
	}
	s.record(ctx, "analysis.update", "analysis", id, nil)
	return updated, nil
}

// DeleteAnalysis removes an analysis.
func (s *Service) DeleteAnalysis(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAnalysis(ctx, id); err != nil {
		return notFound(err, "analysis %d", id)
	}
	s.record(ctx, "analysis.delete", "analysis", id, nil)
	return nil
}

func validateAnalysis(a Analysis) error {
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return shared.Validationf("start and end dates are required")
	}
	if a.EndDate.Before(a.StartDate.Time) {
		return shared.Validationf("end date must not be before start date")
	}
	if len(a.Parameters) > 0 && !json.Valid(a.Parameters) {
		return shared.Validationf("parameters must be valid JSON")
	}
	if len(a.Results) > 0 && !json.Valid(a.Results) {
		return shared.Validationf("results must be valid JSON")
	}
	return nil
}
