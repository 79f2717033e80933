package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

// CreateShortLink inserts a link under a placeholder code, then rewrites the
// code from the assigned sequence number in the same transaction.
func (s *SQLiteStore) CreateShortLink(ctx context.Context, link *models.ShortLink) error {
	link.CreatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO short_links (code, calculation_type, calculation_id, created_at) VALUES (?, ?, ?, ?)",
		"tmp-"+uuid.New().String(), string(link.CalculationType), link.CalculationID, link.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("short link for %s %s: %w", link.CalculationType, link.CalculationID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert short link: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read short link sequence: %w", err)
	}

	code := shortlink.Encode(seq)
	if _, err := tx.ExecContext(ctx,
		"UPDATE short_links SET code = ? WHERE seq = ?", code, seq,
	); err != nil {
		return fmt.Errorf("failed to set short code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	link.Seq = seq
	link.Code = code
	return nil
}

// ResolveShortLink looks a short link up by its code.
func (s *SQLiteStore) ResolveShortLink(ctx context.Context, code string) (*models.ShortLink, error) {
	return s.scanShortLink(ctx,
		"SELECT seq, code, calculation_type, calculation_id, created_at FROM short_links WHERE code = ?",
		code,
	)
}

// GetShortLinkByCalculation returns the link for a calculation, if any.
func (s *SQLiteStore) GetShortLinkByCalculation(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error) {
	return s.scanShortLink(ctx,
		"SELECT seq, code, calculation_type, calculation_id, created_at FROM short_links WHERE calculation_type = ? AND calculation_id = ?",
		string(calcType), calcID,
	)
}

func (s *SQLiteStore) scanShortLink(ctx context.Context, query string, args ...any) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	var calcType string
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&link.Seq, &link.Code, &calcType, &link.CalculationID, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("short link: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get short link: %w", err)
	}
	link.CalculationType = models.CalculationType(calcType)
	return link, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlitedriver.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
