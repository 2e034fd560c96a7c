package inputs

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Input
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Input)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Input, error) {
	var out []Input
	for _, in := range r.items {
		if filters.Name != nil && !strings.Contains(shared.FoldSearch(in.Name), shared.FoldSearch(*filters.Name)) {
			continue
		}
		if filters.Status != nil && in.Status != *filters.Status {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Input, error) {
	in, ok := r.items[id]
	if !ok {
		return Input{}, errNoRows
	}
	return in, nil
}

func (r *memoryRepo) FindByCode(ctx context.Context, code string) (Input, error) {
	for _, in := range r.items {
		if in.Code == code {
			return in, nil
		}
	}
	return Input{}, errNoRows
}

func (r *memoryRepo) Create(ctx context.Context, in Input) (Input, error) {
	r.nextID++
	in.ID = r.nextID
	r.items[in.ID] = in
	return in, nil
}

func (r *memoryRepo) Update(ctx context.Context, in Input) (Input, error) {
	prev, ok := r.items[in.ID]
	if !ok {
		return Input{}, errNoRows
	}
	in.CurrentStock = prev.CurrentStock
	r.items[in.ID] = in
	return in, nil
}

func (r *memoryRepo) SetStatus(ctx context.Context, id int64, status string) error {
	in, ok := r.items[id]
	if !ok {
		return errNoRows
	}
	in.Status = status
	r.items[id] = in
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateDefaultsAndDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	in, err := svc.Create(ctx, CreateRequest{Code: "ARZ-01", Name: "Arroz tipo 1", Unit: "kg"})
	require.NoError(t, err)
	require.Equal(t, "active", in.Status)
	require.True(t, in.CurrentStock.IsZero())
	require.True(t, in.MinimumStock.IsZero())

	_, err = svc.Create(ctx, CreateRequest{Code: "ARZ-01", Name: "Outro", Unit: "kg"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateRejectsNegativeMinimum(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	neg := decimal.NewFromInt(-1)
	_, err := svc.Create(context.Background(), CreateRequest{Code: "F1", Name: "Feijão", Unit: "kg", MinimumStock: &neg})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateKeepsStockAndAllowsOwnCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	stock := decimal.NewFromInt(40)
	in, err := svc.Create(ctx, CreateRequest{Code: "L1", Name: "Leite", Unit: "l", CurrentStock: &stock})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Code: "L2", Name: "Leite integral", Unit: "l"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, in.ID, UpdateRequest{Code: strPtr("L1"), Name: strPtr("Leite UHT")})
	require.NoError(t, err)
	require.Equal(t, "Leite UHT", updated.Name)
	require.True(t, updated.CurrentStock.Equal(stock))

	_, err = svc.Update(ctx, in.ID, UpdateRequest{Code: strPtr("L2")})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestDeleteIsSoftAndMissingIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	in, err := svc.Create(ctx, CreateRequest{Code: "O1", Name: "Óleo", Unit: "l"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, in.ID))
	got, err := svc.Get(ctx, in.ID)
	require.NoError(t, err)
	require.Equal(t, "inactive", got.Status)

	require.ErrorIs(t, svc.Delete(ctx, 99), httpx.ErrNotFound)
	_, err = svc.Get(ctx, 99)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.List(context.Background(), ListFilters{Status: strPtr("deleted")})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestListMatchesAccentInsensitiveName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{Code: "F1", Name: "Feijão carioca", Unit: "kg"})
	require.NoError(t, err)
	items, err := svc.List(ctx, ListFilters{Name: strPtr("FEIJAO")})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestViewFlagsBelowMinimum(t *testing.T) {
	v := toView(Input{MinimumStock: decimal.NewFromInt(10), CurrentStock: decimal.NewFromInt(3)})
	require.True(t, v.BelowMinimum)
	v = toView(Input{MinimumStock: decimal.NewFromInt(10), CurrentStock: decimal.NewFromInt(10)})
	require.False(t, v.BelowMinimum)
}
