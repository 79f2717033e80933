package shortlink_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
	"github.com/mmynk/nekolators/internal/storage/sqlite"
)

func newService(t *testing.T) *shortlink.Service {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return shortlink.NewService(store)
}

func TestServiceCreateReusesExistingCode(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, models.CalculationTypeExpert, "calc-1")
	require.NoError(t, err)

	again, err := svc.Create(ctx, models.CalculationTypeExpert, "calc-1")
	require.NoError(t, err)
	assert.Equal(t, first.Code, again.Code)

	other, err := svc.Create(ctx, models.CalculationTypeBasic, "calc-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, other.Code)
}

// staleLookupStore misses the next calculation lookup, as if another request
// created the link between the lookup and the insert.
type staleLookupStore struct {
	storage.Store
	misses int
}

func (s *staleLookupStore) GetShortLinkByCalculation(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error) {
	if s.misses > 0 {
		s.misses--
		return nil, storage.ErrNotFound
	}
	return s.Store.GetShortLinkByCalculation(ctx, calcType, calcID)
}

func TestServiceCreateConcurrentCreateReturnsExistingCode(t *testing.T) {
	inner, err := sqlite.New(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	store := &staleLookupStore{Store: inner}
	svc := shortlink.NewService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, models.CalculationTypeExpert, "calc-1")
	require.NoError(t, err)

	store.misses = 1
	again, err := svc.Create(ctx, models.CalculationTypeExpert, "calc-1")
	require.NoError(t, err)
	assert.Equal(t, first.Code, again.Code)
	assert.Equal(t, 0, store.misses)
}

func TestServiceCreateValidates(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CalculationType("fancy"), "calc-1")
	assert.Error(t, err)

	_, err = svc.Create(ctx, models.CalculationTypeBasic, "")
	assert.Error(t, err)
}

func TestServiceResolve(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	link, err := svc.Create(ctx, models.CalculationTypeBasic, "calc-9")
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, "calc-9", got.CalculationID)
	assert.Equal(t, "/calc-9/insert", shortlink.RedirectPath(got))

	_, err = svc.Resolve(ctx, "NOT-A-CODE")
	assert.ErrorIs(t, err, shortlink.ErrInvalidCode)

	_, err = svc.Resolve(ctx, "zzz")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedirectPathExpert(t *testing.T) {
	link := &models.ShortLink{CalculationType: models.CalculationTypeExpert, CalculationID: "abc"}
	assert.Equal(t, "/expert/abc/edit", shortlink.RedirectPath(link))
}
