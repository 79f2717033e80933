package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCalculations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create generates ID and title", func(t *testing.T) {
		calc := &models.Calculation{
			Persons: []models.Participant{
				{ID: "1", Name: "Alice", Price: "10000", TotalPrice: 10000, TotalToPay: 10000},
				{ID: "2", Name: "Bob", Price: "5000+5000", TotalPrice: 10000, TotalToPay: 10000},
			},
			OverallTotal: 20000,
			FinalTotal:   20000,
		}
		require.NoError(t, store.CreateCalculation(ctx, calc))

		assert.NotEmpty(t, calc.ID)
		assert.Equal(t, "Split with Alice, Bob", calc.Title)
		assert.NotZero(t, calc.CreatedAt)
		assert.Equal(t, calc.CreatedAt, calc.UpdatedAt)
	})

	t.Run("get returns participants in order", func(t *testing.T) {
		original := &models.Calculation{
			Title:          "Lunch",
			DiscountValue:  "5000+1000",
			DiscountResult: 6000,
			TaxValue:       "2000",
			TaxResult:      2000,
			Persons: []models.Participant{
				{ID: "b", Name: "Zed", Price: "30000", TotalPrice: 30000, TotalToPay: 27000},
				{ID: "a", Name: "Amy", Price: "10000", TotalPrice: 10000, TotalToPay: 9000},
			},
			OverallTotal: 40000,
			FinalTotal:   36000,
		}
		require.NoError(t, store.CreateCalculation(ctx, original))

		got, err := store.GetCalculation(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetCalculation(ctx, "does-not-exist")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update replaces participants", func(t *testing.T) {
		calc := &models.Calculation{
			Persons: []models.Participant{{ID: "1", Name: "Alice", Price: "100", TotalPrice: 100, TotalToPay: 100}},
		}
		require.NoError(t, store.CreateCalculation(ctx, calc))
		createdAt := calc.CreatedAt

		calc.Title = "Renamed"
		calc.Persons = []models.Participant{
			{ID: "1", Name: "Alice", Price: "100", TotalPrice: 100, TotalToPay: 90},
			{ID: "2", Name: "Bob", Price: "50", TotalPrice: 50, TotalToPay: 45},
		}
		calc.CreatedAt = 0
		require.NoError(t, store.UpdateCalculation(ctx, calc))
		assert.Equal(t, createdAt, calc.CreatedAt)

		got, err := store.GetCalculation(ctx, calc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Len(t, got.Persons, 2)
		assert.Equal(t, 45.0, got.Persons[1].TotalToPay)
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateCalculation(ctx, &models.Calculation{ID: "nope"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestExpertCalculations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	newCalc := func() *models.ExpertCalculation {
		return &models.ExpertCalculation{
			Items: []models.Item{
				{ID: "i1", Name: "Nasi Goreng", Price: 120, Category: models.CategoryFood},
				{ID: "i2", Name: "Iced Tea", Price: 60, Category: models.CategoryDrink},
			},
			Persons: []models.Person{
				{ID: "p1", Name: "Alice", Color: "#8B5CF6"},
				{ID: "p2", Name: "Bob", Color: "#F59E0B"},
			},
			Assignments: []models.Assignment{
				{ItemID: "i1", PersonID: "p1"},
				{ItemID: "i2", PersonID: "p1"},
				{ItemID: "i2", PersonID: "p2"},
			},
			DiscountValue: "30",
			Discount:      30,
			Tax:           15,
			Subtotal:      180,
			FinalTotal:    165,
		}
	}

	t.Run("round trip", func(t *testing.T) {
		calc := newCalc()
		calc.ReceiptData = json.RawMessage(`{"transaction_id":"TXN-1"}`)
		require.NoError(t, store.CreateExpertCalculation(ctx, calc))
		assert.NotEmpty(t, calc.ID)
		assert.Equal(t, "Split with Alice, Bob", calc.Title)

		got, err := store.GetExpertCalculation(ctx, calc.ID)
		require.NoError(t, err)
		assert.Equal(t, calc, got)
	})

	t.Run("duplicate assignments collapse", func(t *testing.T) {
		calc := newCalc()
		calc.Assignments = append(calc.Assignments, models.Assignment{ItemID: "i1", PersonID: "p1"})
		require.NoError(t, store.CreateExpertCalculation(ctx, calc))

		got, err := store.GetExpertCalculation(ctx, calc.ID)
		require.NoError(t, err)
		assert.Len(t, got.Assignments, 3)
		assert.Nil(t, got.ReceiptData)
	})

	t.Run("update replaces children", func(t *testing.T) {
		calc := newCalc()
		require.NoError(t, store.CreateExpertCalculation(ctx, calc))

		calc.Items = calc.Items[:1]
		calc.Assignments = []models.Assignment{{ItemID: "i1", PersonID: "p2"}}
		calc.Subtotal = 120
		calc.FinalTotal = 105
		require.NoError(t, store.UpdateExpertCalculation(ctx, calc))

		got, err := store.GetExpertCalculation(ctx, calc.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
		assert.Equal(t, []models.Assignment{{ItemID: "i1", PersonID: "p2"}}, got.Assignments)
		assert.Equal(t, 105.0, got.FinalTotal)
	})

	t.Run("missing returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetExpertCalculation(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		err = store.UpdateExpertCalculation(ctx, &models.ExpertCalculation{ID: "missing"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestShortLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.ShortLink{CalculationType: models.CalculationTypeBasic, CalculationID: "calc-1"}
	require.NoError(t, store.CreateShortLink(ctx, first))
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "1", first.Code)

	second := &models.ShortLink{CalculationType: models.CalculationTypeExpert, CalculationID: "calc-1"}
	require.NoError(t, store.CreateShortLink(ctx, second))
	assert.Equal(t, "2", second.Code)

	got, err := store.ResolveShortLink(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.CalculationTypeExpert, got.CalculationType)
	assert.Equal(t, "calc-1", got.CalculationID)

	got, err = store.GetShortLinkByCalculation(ctx, models.CalculationTypeBasic, "calc-1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Code)

	_, err = store.ResolveShortLink(ctx, "zz")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	dup := &models.ShortLink{CalculationType: models.CalculationTypeBasic, CalculationID: "calc-1"}
	assert.ErrorIs(t, store.CreateShortLink(ctx, dup), storage.ErrConflict)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	calc := &models.Calculation{Persons: []models.Participant{{ID: "1", Name: "A", Price: "1", TotalPrice: 1, TotalToPay: 1}}}
	require.NoError(t, store.CreateCalculation(ctx, calc))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.GetCalculation(ctx, calc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Split with A", got.Title)
}
