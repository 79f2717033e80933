package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/storage"
)

// CreateCalculation persists a new basic calculation to the database.
func (s *SQLiteStore) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	storage.PrepareCalculation(calc, time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO calculations (id, title, discount_value, discount_result, tax_value, tax_result,
			overall_total, final_total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		calc.ID, calc.Title, calc.DiscountValue, calc.DiscountResult, calc.TaxValue, calc.TaxResult,
		calc.OverallTotal, calc.FinalTotal, calc.CreatedAt, calc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}

	if err := insertParticipants(ctx, tx, calc.ID, calc.Persons); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCalculation retrieves a basic calculation by ID, including its participants.
func (s *SQLiteStore) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	calc := &models.Calculation{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, discount_value, discount_result, tax_value, tax_result,
			overall_total, final_total, created_at, updated_at
		FROM calculations WHERE id = ?`,
		id,
	).Scan(&calc.ID, &calc.Title, &calc.DiscountValue, &calc.DiscountResult, &calc.TaxValue, &calc.TaxResult,
		&calc.OverallTotal, &calc.FinalTotal, &calc.CreatedAt, &calc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calculation %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculation: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price, total_price, total_to_pay
		FROM calculation_participants WHERE calculation_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	calc.Persons = []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.TotalPrice, &p.TotalToPay); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		calc.Persons = append(calc.Persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return calc, nil
}

// UpdateCalculation replaces an existing basic calculation and its participants.
func (s *SQLiteStore) UpdateCalculation(ctx context.Context, calc *models.Calculation) error {
	calc.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE calculations SET title = ?, discount_value = ?, discount_result = ?, tax_value = ?,
			tax_result = ?, overall_total = ?, final_total = ?, updated_at = ?
		WHERE id = ?`,
		calc.Title, calc.DiscountValue, calc.DiscountResult, calc.TaxValue,
		calc.TaxResult, calc.OverallTotal, calc.FinalTotal, calc.UpdatedAt,
		calc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update calculation: %w", err)
	}
	if err := checkAffected(res, "calculation", calc.ID); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM calculations WHERE id = ?", calc.ID,
	).Scan(&calc.CreatedAt); err != nil {
		return fmt.Errorf("failed to read calculation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM calculation_participants WHERE calculation_id = ?", calc.ID,
	); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	if err := insertParticipants(ctx, tx, calc.ID, calc.Persons); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertParticipants(ctx context.Context, tx execer, calcID string, persons []models.Participant) error {
	for i, p := range persons {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO calculation_participants (calculation_id, position, id, name, price, total_price, total_to_pay)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			calcID, i, p.ID, p.Name, p.Price, p.TotalPrice, p.TotalToPay,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}
