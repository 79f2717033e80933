package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/storage"
	"github.com/mmynk/nekolators/internal/storage/badger"
)

func newInner(t *testing.T) storage.Store {
	t.Helper()
	inner, err := badger.NewInMemory()
	require.NoError(t, err)
	return inner
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "nekolators:calc:abc", calculationKey("abc"))
	assert.Equal(t, "nekolators:expert:abc", expertKey("abc"))
	assert.Equal(t, "nekolators:link:2s", linkCodeKey("2s"))
	assert.Equal(t, "nekolators:link:expert:abc", linkCalcKey(models.CalculationTypeExpert, "abc"))
}

func TestFallsThroughWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer rdb.Close()

	store := New(newInner(t), rdb, time.Minute)
	defer store.Close()
	ctx := context.Background()

	calc := &models.Calculation{Persons: []models.Participant{{ID: "1", Name: "Ana", Price: "10", TotalPrice: 10, TotalToPay: 10}}}
	require.NoError(t, store.CreateCalculation(ctx, calc))

	got, err := store.GetCalculation(ctx, calc.ID)
	require.NoError(t, err)
	assert.Equal(t, calc.ID, got.ID)

	calc.Title = "Updated"
	require.NoError(t, store.UpdateCalculation(ctx, calc))

	_, err = store.GetExpertCalculation(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// TestReadThrough runs against a real Redis when NEKOLATORS_TEST_REDIS_ADDR is set.
func TestReadThrough(t *testing.T) {
	addr := os.Getenv("NEKOLATORS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NEKOLATORS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := Connect(ctx, addr)
	require.NoError(t, err)
	defer rdb.Close()

	store := New(newInner(t), rdb, time.Minute)
	defer store.Close()

	calc := &models.ExpertCalculation{
		Items:   []models.Item{{ID: "i1", Name: "Teh", Price: 8000, Category: models.CategoryDrink}},
		Persons: []models.Person{{ID: "p1", Name: "Dewi", Color: "#8B5CF6"}},
	}
	require.NoError(t, store.CreateExpertCalculation(ctx, calc))
	defer rdb.Del(ctx, expertKey(calc.ID))

	_, err = store.GetExpertCalculation(ctx, calc.ID)
	require.NoError(t, err)
	exists, err := rdb.Exists(ctx, expertKey(calc.ID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	calc.Title = "Changed"
	require.NoError(t, store.UpdateExpertCalculation(ctx, calc))
	exists, err = rdb.Exists(ctx, expertKey(calc.ID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)

	got, err := store.GetExpertCalculation(ctx, calc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.Title)
}
