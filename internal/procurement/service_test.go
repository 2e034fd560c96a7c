package procurement

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

type memoryProcRepo struct {
	suppliers  map[int64]bool
	inputs     map[int64]string
	contracts  map[int64]Contract
	quotations map[int64]Quotation
	plans      map[int64]PurchasePlan
	nextID     int64
}

type memoryProcTx struct {
	repo *memoryProcRepo
}

func newMemoryProcRepo() *memoryProcRepo {
	return &memoryProcRepo{
		suppliers:  map[int64]bool{1: true},
		inputs:     map[int64]string{7: "Arroz", 8: "Feijão"},
		contracts:  make(map[int64]Contract),
		quotations: make(map[int64]Quotation),
		plans:      make(map[int64]PurchasePlan),
	}
}

func (r *memoryProcRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryProcRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryProcTx{repo: r})
}

func (r *memoryProcRepo) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return r.suppliers[id], nil
}

func (r *memoryProcRepo) InputExists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.inputs[id]
	return ok, nil
}

func (r *memoryProcRepo) ContractExists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.contracts[id]
	return ok, nil
}

func (r *memoryProcRepo) GetContract(ctx context.Context, id int64) (Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryProcRepo) ListContracts(ctx context.Context, filters ContractFilters) ([]Contract, error) {
	var out []Contract
	for _, c := range r.contracts {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryProcRepo) ContractSchedule(ctx context.Context, from, to shared.Date) ([]ScheduleEntry, error) {
	var out []ScheduleEntry
	for _, c := range r.contracts {
		if c.Status != ContractActive {
			continue
		}
		for _, it := range c.Items {
			if it.ExpectedDeliveryDate == nil || it.ExpectedDeliveryDate.Before(from.Time) || it.ExpectedDeliveryDate.After(to.Time) {
				continue
			}
			out = append(out, ScheduleEntry{ContractID: c.ID, ContractNumber: c.Number, InputID: it.InputID, InputName: r.inputs[it.InputID], Quantity: it.Quantity, ExpectedDeliveryDate: *it.ExpectedDeliveryDate})
		}
	}
	return out, nil
}

func (r *memoryProcRepo) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	q, ok := r.quotations[id]
	if !ok {
		return Quotation{}, ErrNotFound
	}
	return q, nil
}

func (r *memoryProcRepo) ListQuotations(ctx context.Context, filters QuotationFilters) ([]Quotation, error) {
	var out []Quotation
	for _, q := range r.quotations {
		out = append(out, q)
	}
	return out, nil
}

func (r *memoryProcRepo) InsertQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	q.ID = r.id()
	r.quotations[q.ID] = q
	return q, nil
}

func (r *memoryProcRepo) UpdateQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	if _, ok := r.quotations[q.ID]; !ok {
		return Quotation{}, ErrNotFound
	}
	r.quotations[q.ID] = q
	return q, nil
}

func (r *memoryProcRepo) DeleteQuotation(ctx context.Context, id int64) error {
	if _, ok := r.quotations[id]; !ok {
		return ErrNotFound
	}
	delete(r.quotations, id)
	return nil
}

func (r *memoryProcRepo) PricePoints(ctx context.Context, inputID int64, from, to *shared.Date) ([]PricePoint, error) {
	var out []PricePoint
	for _, q := range r.quotations {
		if q.InputID != inputID {
			continue
		}
		out = append(out, PricePoint{QuotationID: q.ID, QuotedOn: q.QuotedOn, SupplierID: q.SupplierID, UnitPrice: q.UnitPrice})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuotedOn.Before(out[j].QuotedOn.Time) })
	return out, nil
}

func (r *memoryProcRepo) GetPlan(ctx context.Context, id int64) (PurchasePlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return PurchasePlan{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryProcRepo) ListPlans(ctx context.Context, filters PlanFilters) ([]PurchasePlan, error) {
	var out []PurchasePlan
	for _, p := range r.plans {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryProcRepo) InsertPlan(ctx context.Context, p PurchasePlan) (PurchasePlan, error) {
	p.ID = r.id()
	r.plans[p.ID] = p
	return p, nil
}

func (r *memoryProcRepo) UpdatePlan(ctx context.Context, p PurchasePlan) (PurchasePlan, error) {
	r.plans[p.ID] = p
	return p, nil
}

func (tx *memoryProcTx) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return tx.repo.SupplierExists(ctx, id)
}

func (tx *memoryProcTx) InputExists(ctx context.Context, id int64) (bool, error) {
	return tx.repo.InputExists(ctx, id)
}

func (tx *memoryProcTx) ContractExists(ctx context.Context, id int64) (bool, error) {
	return tx.repo.ContractExists(ctx, id)
}

func (tx *memoryProcTx) FindContractByNumber(ctx context.Context, number string) (int64, error) {
	for _, c := range tx.repo.contracts {
		if c.Number == number {
			return c.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (tx *memoryProcTx) GetContractForUpdate(ctx context.Context, id int64) (Contract, error) {
	return tx.repo.GetContract(ctx, id)
}

func (tx *memoryProcTx) InsertContract(ctx context.Context, c Contract) (int64, error) {
	c.ID = tx.repo.id()
	tx.repo.contracts[c.ID] = c
	return c.ID, nil
}

func (tx *memoryProcTx) UpdateContract(ctx context.Context, c Contract) error {
	prev := tx.repo.contracts[c.ID]
	c.Items = prev.Items
	tx.repo.contracts[c.ID] = c
	return nil
}

func (tx *memoryProcTx) ReplaceContractItems(ctx context.Context, contractID int64, items []ContractItem) error {
	c := tx.repo.contracts[contractID]
	c.Items = append([]ContractItem(nil), items...)
	tx.repo.contracts[contractID] = c
	return nil
}

func (tx *memoryProcTx) SetContractStatus(ctx context.Context, id int64, status string) error {
	c := tx.repo.contracts[id]
	c.Status = status
	tx.repo.contracts[id] = c
	return nil
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func day(s string) shared.Date {
	d, err := shared.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func contractInput(number string) CreateContractInput {
	expected := day("2024-03-10")
	return CreateContractInput{
		Number:     number,
		SupplierID: 1,
		StartDate:  day("2024-01-01"),
		EndDate:    day("2024-12-31"),
		Items: []ContractItemInput{
			{InputID: 7, Quantity: *dec("100"), UnitValue: *dec("4.5"), ExpectedDeliveryDate: &expected},
			{InputID: 8, Quantity: *dec("50"), UnitValue: *dec("7")},
		},
	}
}

func TestCreateContractTotalsAndUniqueness(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), nil)
	ctx := context.Background()

	c, err := svc.CreateContract(ctx, contractInput("CT-01"))
	require.NoError(t, err)
	require.Equal(t, ContractActive, c.Status)
	require.True(t, c.TotalValue.Equal(*dec("800")))
	require.Len(t, c.Items, 2)

	_, err = svc.CreateContract(ctx, contractInput("CT-01"))
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateContractValidatesDatesAndRefs(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), nil)
	ctx := context.Background()

	in := contractInput("CT-02")
	in.EndDate = day("2023-12-31")
	_, err := svc.CreateContract(ctx, in)
	require.ErrorIs(t, err, httpx.ErrValidation)

	in = contractInput("CT-03")
	in.SupplierID = 5
	_, err = svc.CreateContract(ctx, in)
	require.ErrorIs(t, err, httpx.ErrValidation)

	in = contractInput("CT-04")
	in.Items[0].TotalValue = dec("451")
	_, err = svc.CreateContract(ctx, in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateContractReplacesItemsAndDeleteCancels(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	c, err := svc.CreateContract(ctx, contractInput("CT-05"))
	require.NoError(t, err)

	items := []ContractItemInput{{InputID: 8, Quantity: *dec("10"), UnitValue: *dec("2")}}
	updated, err := svc.UpdateContract(ctx, c.ID, UpdateContractInput{Items: &items})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.True(t, updated.TotalValue.Equal(*dec("20")))

	require.NoError(t, svc.DeleteContract(ctx, c.ID))
	require.Equal(t, ContractCancelled, repo.contracts[c.ID].Status)
	require.NoError(t, svc.DeleteContract(ctx, c.ID))
	require.ErrorIs(t, svc.DeleteContract(ctx, 999), httpx.ErrNotFound)
}

func TestScheduleReturnsActiveItemsInWindow(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), nil)
	ctx := context.Background()
	_, err := svc.CreateContract(ctx, contractInput("CT-06"))
	require.NoError(t, err)

	entries, err := svc.Schedule(ctx, day("2024-03-01"), day("2024-03-31"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(7), entries[0].InputID)

	entries, err = svc.Schedule(ctx, day("2024-04-01"), day("2024-04-30"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestQuotationReferencesAndPriceEvolution(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateQuotation(ctx, QuotationInput{QuotedOn: day("2024-01-01"), SupplierID: 1, InputID: 99, UnitPrice: *dec("1")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	missing := int64(42)
	_, err = svc.CreateQuotation(ctx, QuotationInput{QuotedOn: day("2024-01-01"), SupplierID: 1, InputID: 7, UnitPrice: *dec("1"), ContractID: &missing})
	require.ErrorIs(t, err, httpx.ErrValidation)

	for date, price := range map[string]string{"2024-01-10": "4.00", "2024-02-10": "5.00", "2024-03-10": "6.00"} {
		_, err := svc.CreateQuotation(ctx, QuotationInput{QuotedOn: day(date), SupplierID: 1, InputID: 7, UnitPrice: *dec(price)})
		require.NoError(t, err)
	}
	evo, err := svc.PriceEvolution(ctx, 7, nil, nil)
	require.NoError(t, err)
	require.Len(t, evo.Points, 3)
	require.Equal(t, "2024-01-10", evo.Points[0].QuotedOn.String())
	require.True(t, evo.Minimum.Equal(*dec("4")))
	require.True(t, evo.Maximum.Equal(*dec("6")))
	require.True(t, evo.Average.Equal(*dec("5")))

	empty, err := svc.PriceEvolution(ctx, 8, nil, nil)
	require.NoError(t, err)
	require.Empty(t, empty.Points)
}

func TestDeleteQuotationIsHard(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), nil)
	ctx := context.Background()
	q, err := svc.CreateQuotation(ctx, QuotationInput{QuotedOn: day("2024-01-01"), SupplierID: 1, InputID: 7, UnitPrice: *dec("3")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteQuotation(ctx, q.ID))
	_, err = svc.GetQuotation(ctx, q.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestPlanTotals(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), nil)
	ctx := context.Background()
	month, err := shared.ParseMonth("2024-05")
	require.NoError(t, err)

	p, err := svc.CreatePlan(ctx, PlanInput{ReferenceMonth: month, InputID: 7, PlannedQuantity: *dec("10"), PlannedUnitValue: dec("2.5")})
	require.NoError(t, err)
	require.Equal(t, PlanPending, p.Status)
	require.True(t, p.PlannedTotalValue.Equal(*dec("25")))

	_, err = svc.CreatePlan(ctx, PlanInput{ReferenceMonth: month, InputID: 7, PlannedQuantity: *dec("10"), PlannedUnitValue: dec("2.5"), PlannedTotalValue: dec("26")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	updated, err := svc.UpdatePlan(ctx, p.ID, UpdatePlanInput{PlannedQuantity: dec("4")})
	require.NoError(t, err)
	require.True(t, updated.PlannedTotalValue.Equal(*dec("10")))

	require.NoError(t, svc.DeletePlan(ctx, p.ID))
	got, err := svc.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, PlanCancelled, got.Status)
}
