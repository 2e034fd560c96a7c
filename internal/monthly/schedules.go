package monthly

import (
	"context"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// GetSchedule returns one future schedule.
func (s *Service) GetSchedule(ctx context.Context, id int64) (FutureSchedule, error) {
	fs, err := s.repo.GetSchedule(ctx, id)
	return fs, notFound(err, "schedule %d", id)
}

// ListSchedules returns future schedules, oldest month first.
func (s *Service) ListSchedules(ctx context.Context, filters ScheduleFilters) ([]FutureSchedule, error) {
	if filters.Status != nil && !validScheduleStatus(*filters.Status) {
		return nil, shared.Validationf("unknown status %q", *filters.Status)
	}
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListSchedules(ctx, filters)
}

// CreateSchedule stores a future schedule.
func (s *Service) CreateSchedule(ctx context.Context, input ScheduleInput) (FutureSchedule, error) {
	fs := FutureSchedule{
		ReferenceMonth:   input.ReferenceMonth,
		InputID:          input.InputID,
		ContractID:       input.ContractID,
		PlannedQuantity:  input.PlannedQuantity,
		PlannedUnitValue: input.PlannedUnitValue,
		Status:           SchedulePending,
		Notes:            deref(input.Notes),
	}
	if input.Status != nil {
		fs.Status = *input.Status
	}
	if err := s.checkSchedule(ctx, fs); err != nil {
		return FutureSchedule{}, err
	}
	created, err := s.repo.InsertSchedule(ctx, fs)
	if err != nil {
		return FutureSchedule{}, err
	}
	s.record(ctx, "schedule.create", "future_schedule", created.ID, map[string]any{"month": created.ReferenceMonth.String()})
	return created, nil
}

// UpdateSchedule applies the supplied fields.
func (s *Service) UpdateSchedule(ctx context.Context, id int64, input UpdateScheduleInput) (FutureSchedule, error) {
	fs, err := s.GetSchedule(ctx, id)
	if err != nil {
		return FutureSchedule{}, err
	}
	if input.ReferenceMonth != nil {
		fs.ReferenceMonth = *input.ReferenceMonth
	}
	if input.InputID != nil {
		fs.InputID = *input.InputID
	}
	if input.ContractID != nil {
		fs.ContractID = input.ContractID
	}
	if input.PlannedQuantity != nil {
		fs.PlannedQuantity = *input.PlannedQuantity
	}
	if input.PlannedUnitValue != nil {
		fs.PlannedUnitValue = input.PlannedUnitValue
	}
	if input.Status != nil {
		fs.Status = *input.Status
	}
	if input.Notes != nil {
		fs.Notes = *input.Notes
	}
	if err := s.checkSchedule(ctx, fs); err != nil {
		return FutureSchedule{}, err
	}
	updated, err := s.repo.UpdateSchedule(ctx, fs)
	if err != nil {
		return FutureSchedule{}, notFound(err, "schedule %d", id)
	}
	s.record(ctx, "schedule.update", "future_schedule", id, nil)
	return updated, nil
}

// DeleteSchedule cancels a future schedule.
func (s *Service) DeleteSchedule(ctx context.Context, id int64) error {
	status := ScheduleCancelled
	_, err := s.UpdateSchedule(ctx, id, UpdateScheduleInput{Status: &status})
	return err
}

func (s *Service) checkSchedule(ctx context.Context, fs FutureSchedule) error {
	if fs.ReferenceMonth.IsZero() {
		return shared.Validationf("reference month is required")
	}
	if !fs.PlannedQuantity.IsPositive() {
		return shared.Validationf("planned quantity must be positive")
	}
	if fs.PlannedUnitValue != nil && fs.PlannedUnitValue.IsNegative() {
		return shared.Validationf("planned unit value cannot be negative")
	}
	if !validScheduleStatus(fs.Status) {
		return shared.Validationf("unknown status %q", fs.Status)
	}
	if err := requireInput(ctx, s.repo, fs.InputID); err != nil {
		return err
	}
	return checkRefs(ctx, s.repo, nil, fs.ContractID)
}

func validScheduleStatus(status string) bool {
	switch status {
	case SchedulePending, ScheduleConfirmed, ScheduleCancelled:
		return true
	}
	return false
}
