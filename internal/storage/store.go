// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/nekolators/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a create collides with an existing record,
// such as a second short link for the same calculation.
var ErrConflict = errors.New("conflict")

// Store defines the interface for calculation storage operations.
// This abstraction allows swapping storage backends (SQLite, Badger,
// PostgreSQL) without changing the service layer.
type Store interface {
	// CreateCalculation persists a new basic calculation.
	// The ID, CreatedAt and UpdatedAt fields are populated by the store.
	CreateCalculation(ctx context.Context, calc *models.Calculation) error

	// GetCalculation retrieves a basic calculation by its ID.
	// Returns ErrNotFound if it does not exist.
	GetCalculation(ctx context.Context, id string) (*models.Calculation, error)

	// UpdateCalculation replaces an existing basic calculation.
	// Returns ErrNotFound if it does not exist.
	UpdateCalculation(ctx context.Context, calc *models.Calculation) error

	// CreateExpertCalculation persists a new expert calculation.
	CreateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error

	// GetExpertCalculation retrieves an expert calculation by its ID.
	GetExpertCalculation(ctx context.Context, id string) (*models.ExpertCalculation, error)

	// UpdateExpertCalculation replaces an existing expert calculation.
	UpdateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error

	// CreateShortLink allocates the next sequence number for link and sets
	// link.Seq, link.Code and link.CreatedAt. Returns ErrConflict if the
	// calculation already has a link.
	CreateShortLink(ctx context.Context, link *models.ShortLink) error

	// ResolveShortLink looks a short link up by code.
	ResolveShortLink(ctx context.Context, code string) (*models.ShortLink, error)

	// GetShortLinkByCalculation returns the link already created for a
	// calculation, or ErrNotFound.
	GetShortLinkByCalculation(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error)

	// Close releases any resources held by the store.
	Close() error
}
