// Package postgres implements storage.Store on PostgreSQL through GORM, using
// the same table layout as the hosted Supabase database: one row per
// calculation with its lists in JSONB columns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

// New connects to dsn and migrates the schema.
func New(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(&calculationRow{}, &expertCalculationRow{}, &shortLinkRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	slog.Info("Connected to postgres")
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateCalculation inserts a basic calculation.
func (s *PostgresStore) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	storage.PrepareCalculation(calc, time.Now())

	row, err := toCalculationRow(calc)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}
	return nil
}

// GetCalculation loads a basic calculation.
func (s *PostgresStore) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	var row calculationRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "calculation", id)
	}
	return row.toModel()
}

// UpdateCalculation replaces a basic calculation, keeping its creation time.
func (s *PostgresStore) UpdateCalculation(ctx context.Context, calc *models.Calculation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing calculationRow
		if err := tx.Select("created_at").First(&existing, "id = ?", calc.ID).Error; err != nil {
			return notFound(err, "calculation", calc.ID)
		}
		calc.CreatedAt = existing.CreatedAt.Unix()
		calc.UpdatedAt = time.Now().Unix()

		row, err := toCalculationRow(calc)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to update calculation: %w", err)
		}
		return nil
	})
}

// CreateExpertCalculation inserts an expert calculation.
func (s *PostgresStore) CreateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	storage.PrepareExpertCalculation(calc, time.Now())

	row, err := toExpertRow(calc)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert expert calculation: %w", err)
	}
	return nil
}

// GetExpertCalculation loads an expert calculation.
func (s *PostgresStore) GetExpertCalculation(ctx context.Context, id string) (*models.ExpertCalculation, error) {
	var row expertCalculationRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "expert calculation", id)
	}
	return row.toModel()
}

// UpdateExpertCalculation replaces an expert calculation.
func (s *PostgresStore) UpdateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing expertCalculationRow
		if err := tx.Select("created_at").First(&existing, "id = ?", calc.ID).Error; err != nil {
			return notFound(err, "expert calculation", calc.ID)
		}
		calc.CreatedAt = existing.CreatedAt.Unix()
		calc.UpdatedAt = time.Now().Unix()

		row, err := toExpertRow(calc)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to update expert calculation: %w", err)
		}
		return nil
	})
}

// CreateShortLink inserts the link under a temporary code and rewrites it
// from the generated id inside one transaction.
func (s *PostgresStore) CreateShortLink(ctx context.Context, link *models.ShortLink) error {
	row := shortLinkRow{
		ShortCode:       "temp-" + uuid.New().String(),
		CalculationType: string(link.CalculationType),
		CalculationID:   link.CalculationID,
		CreatedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("short link for %s %s: %w", row.CalculationType, row.CalculationID, storage.ErrConflict)
		} else if err != nil {
			return fmt.Errorf("failed to insert short link: %w", err)
		}
		row.ShortCode = shortlink.Encode(row.ID)
		if err := tx.Model(&row).Update("short_code", row.ShortCode).Error; err != nil {
			return fmt.Errorf("failed to set short code: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	*link = *row.toModel()
	return nil
}

// ResolveShortLink loads a short link by code.
func (s *PostgresStore) ResolveShortLink(ctx context.Context, code string) (*models.ShortLink, error) {
	var row shortLinkRow
	if err := s.db.WithContext(ctx).First(&row, "short_code = ?", code).Error; err != nil {
		return nil, notFound(err, "short link", code)
	}
	return row.toModel(), nil
}

// GetShortLinkByCalculation returns the link for a calculation, if any.
func (s *PostgresStore) GetShortLinkByCalculation(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error) {
	var row shortLinkRow
	err := s.db.WithContext(ctx).
		First(&row, "calculation_type = ? AND calculation_id = ?", string(calcType), calcID).Error
	if err != nil {
		return nil, notFound(err, "short link for calculation", calcID)
	}
	return row.toModel(), nil
}

// notFound maps gorm.ErrRecordNotFound to storage.ErrNotFound.
func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", kind, err)
}
