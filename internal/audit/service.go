package audit

import (
	"context"
	"fmt"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	// exportLimit caps CSV exports.
	exportLimit = 10000
)

// Repository reads audit and access logs.
type Repository interface {
	AuditTimeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
	AccessLog(ctx context.Context, filters TimelineFilters, limit, offset int) ([]AccessRow, error)
}

// Service coordinates audit log retrieval.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns a page of audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result[TimelineRow], error) {
	if s.repo == nil {
		return Result[TimelineRow]{}, fmt.Errorf("audit: repository not configured")
	}
	page, size := normalise(filters)
	rows, err := s.repo.AuditTimeline(ctx, filters, size+1, (page-1)*size)
	if err != nil {
		return Result[TimelineRow]{}, err
	}
	rows, paging := paginate(rows, page, size)
	return Result[TimelineRow]{Rows: rows, Paging: paging}, nil
}

// AccessLog returns a page of access log entries, newest first.
func (s *Service) AccessLog(ctx context.Context, filters TimelineFilters) (Result[AccessRow], error) {
	if s.repo == nil {
		return Result[AccessRow]{}, fmt.Errorf("audit: repository not configured")
	}
	page, size := normalise(filters)
	rows, err := s.repo.AccessLog(ctx, filters, size+1, (page-1)*size)
	if err != nil {
		return Result[AccessRow]{}, err
	}
	rows, paging := paginate(rows, page, size)
	return Result[AccessRow]{Rows: rows, Paging: paging}, nil
}

// Export returns every audit entry in range without paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.AuditTimeline(ctx, filters, exportLimit, 0)
}

func normalise(filters TimelineFilters) (int, int) {
	size := filters.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	return page, size
}

// paginate trims the look-ahead row fetched to detect a next page.
func paginate[T any](rows []T, page, size int) ([]T, PagingInfo) {
	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	if rows == nil {
		rows = []T{}
	}
	paging := PagingInfo{Page: page, PageSize: size, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return rows, paging
}
