package shortlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/storage"
)

// ErrInvalidCode is returned when a code cannot be a short code.
var ErrInvalidCode = errors.New("invalid short code")

// Service creates and resolves short links.
type Service struct {
	store storage.Store
}

// NewService creates a short link service backed by store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Create returns the short link for a calculation, creating one only if the
// calculation does not have one yet.
func (s *Service) Create(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error) {
	if !calcType.Valid() {
		return nil, fmt.Errorf("unknown calculation type %q", calcType)
	}
	if calcID == "" {
		return nil, errors.New("calculation id required")
	}

	existing, err := s.store.GetShortLinkByCalculation(ctx, calcType, calcID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up short link: %w", err)
	}

	link := &models.ShortLink{CalculationType: calcType, CalculationID: calcID}
	if err := s.store.CreateShortLink(ctx, link); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost a race with a concurrent create for the same calculation.
			existing, lookupErr := s.store.GetShortLinkByCalculation(ctx, calcType, calcID)
			if lookupErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create short link: %w", err)
	}
	metrics.ShortLinksCreated.Inc()
	slog.Info("Short link created", "code", link.Code, "calculation_type", calcType, "calculation_id", calcID)
	return link, nil
}

// Resolve looks up a short link by code.
func (s *Service) Resolve(ctx context.Context, code string) (*models.ShortLink, error) {
	if !Valid(code) {
		return nil, ErrInvalidCode
	}
	return s.store.ResolveShortLink(ctx, code)
}

// RedirectPath returns the web client path a short link opens: the edit page
// of the calculation it points to.
func RedirectPath(link *models.ShortLink) string {
	if link.CalculationType == models.CalculationTypeBasic {
		return "/" + link.CalculationID + "/insert"
	}
	return "/expert/" + link.CalculationID + "/edit"
}
