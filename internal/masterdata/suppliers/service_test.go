package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
)

type memoryRepo struct {
	items  map[int64]Supplier
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Supplier)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Supplier, error) {
	var out []Supplier
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.items[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) FindByCNPJ(ctx context.Context, cnpj string) (Supplier, error) {
	for _, s := range r.items {
		if s.CNPJ == cnpj {
			return s, nil
		}
	}
	return Supplier{}, ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, s Supplier) (Supplier, error) {
	r.nextID++
	s.ID = r.nextID
	r.items[s.ID] = s
	return s, nil
}

func (r *memoryRepo) Update(ctx context.Context, s Supplier) (Supplier, error) {
	if _, ok := r.items[s.ID]; !ok {
		return Supplier{}, ErrNotFound
	}
	r.items[s.ID] = s
	return s, nil
}

func (r *memoryRepo) SetStatus(ctx context.Context, id int64, status string) error {
	s, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	r.items[id] = s
	return nil
}

func TestCreateNormalisesCNPJ(t *testing.T) {
	svc := NewService(newMemoryRepo())
	sup, err := svc.Create(context.Background(), CreateRequest{Name: "Distribuidora Sul", CNPJ: "12.345.678/0001-90"})
	require.NoError(t, err)
	require.Equal(t, "12345678000190", sup.CNPJ)
	require.Equal(t, "active", sup.Status)
}

func TestCreateRejectsShortCNPJ(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Create(context.Background(), CreateRequest{Name: "X", CNPJ: "123"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDuplicateCNPJIgnoresFormatting(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{Name: "A", CNPJ: "12345678000190"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Name: "B", CNPJ: "12.345.678/0001-90"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateAndSoftDelete(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	sup, err := svc.Create(ctx, CreateRequest{Name: "A", CNPJ: "12345678000190"})
	require.NoError(t, err)

	phone := "51 3333-0000"
	updated, err := svc.Update(ctx, sup.ID, UpdateRequest{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)
	require.Equal(t, sup.CNPJ, updated.CNPJ)

	require.NoError(t, svc.Delete(ctx, sup.ID))
	got, err := svc.Get(ctx, sup.ID)
	require.NoError(t, err)
	require.Equal(t, "inactive", got.Status)

	ok, err := svc.Exists(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)
	_, err = svc.Update(ctx, 42, UpdateRequest{})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
