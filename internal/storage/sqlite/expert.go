package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/storage"
)

// CreateExpertCalculation persists a new expert calculation with its items,
// persons and assignments.
func (s *SQLiteStore) CreateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	storage.PrepareExpertCalculation(calc, time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expert_calculations (id, title, discount_value, tax_value, discount, tax,
			subtotal, final_total, receipt_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		calc.ID, calc.Title, calc.DiscountValue, calc.TaxValue, calc.Discount, calc.Tax,
		calc.Subtotal, calc.FinalTotal, receiptDataArg(calc.ReceiptData), calc.CreatedAt, calc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expert calculation: %w", err)
	}

	if err := insertExpertChildren(ctx, tx, calc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpertCalculation retrieves an expert calculation by ID.
func (s *SQLiteStore) GetExpertCalculation(ctx context.Context, id string) (*models.ExpertCalculation, error) {
	calc := &models.ExpertCalculation{}
	var receipt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, discount_value, tax_value, discount, tax, subtotal, final_total,
			receipt_data, created_at, updated_at
		FROM expert_calculations WHERE id = ?`,
		id,
	).Scan(&calc.ID, &calc.Title, &calc.DiscountValue, &calc.TaxValue, &calc.Discount, &calc.Tax,
		&calc.Subtotal, &calc.FinalTotal, &receipt, &calc.CreatedAt, &calc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expert calculation %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expert calculation: %w", err)
	}
	if receipt.Valid && receipt.String != "" {
		calc.ReceiptData = json.RawMessage(receipt.String)
	}

	if calc.Items, err = s.getItems(ctx, id); err != nil {
		return nil, err
	}
	if calc.Persons, err = s.getPersons(ctx, id); err != nil {
		return nil, err
	}
	if calc.Assignments, err = s.getAssignments(ctx, id); err != nil {
		return nil, err
	}
	return calc, nil
}

// UpdateExpertCalculation replaces an existing expert calculation.
func (s *SQLiteStore) UpdateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	calc.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expert_calculations SET title = ?, discount_value = ?, tax_value = ?, discount = ?, tax = ?,
			subtotal = ?, final_total = ?, receipt_data = ?, updated_at = ?
		WHERE id = ?`,
		calc.Title, calc.DiscountValue, calc.TaxValue, calc.Discount, calc.Tax,
		calc.Subtotal, calc.FinalTotal, receiptDataArg(calc.ReceiptData), calc.UpdatedAt,
		calc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expert calculation: %w", err)
	}
	if err := checkAffected(res, "expert calculation", calc.ID); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM expert_calculations WHERE id = ?", calc.ID,
	).Scan(&calc.CreatedAt); err != nil {
		return fmt.Errorf("failed to read expert calculation: %w", err)
	}

	for _, table := range []string{"expert_items", "expert_persons", "expert_assignments"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE calculation_id = ?", calc.ID,
		); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertExpertChildren(ctx, tx, calc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertExpertChildren(ctx context.Context, tx execer, calc *models.ExpertCalculation) error {
	for i, item := range calc.Items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expert_items (calculation_id, position, id, name, price, category) VALUES (?, ?, ?, ?, ?, ?)",
			calc.ID, i, item.ID, item.Name, item.Price, string(item.Category),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	for i, p := range calc.Persons {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expert_persons (calculation_id, position, id, name, color) VALUES (?, ?, ?, ?, ?)",
			calc.ID, i, p.ID, p.Name, p.Color,
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
	}

	// Duplicate pairs collapse into one row.
	for i, a := range calc.Assignments {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO expert_assignments (calculation_id, item_id, person_id, position) VALUES (?, ?, ?, ?)",
			calc.ID, a.ItemID, a.PersonID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) getItems(ctx context.Context, calcID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price, category FROM expert_items WHERE calculation_id = ? ORDER BY position",
		calcID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		var category string
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &category); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Category = models.Category(category)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) getPersons(ctx context.Context, calcID string) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, color FROM expert_persons WHERE calculation_id = ? ORDER BY position",
		calcID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get persons: %w", err)
	}
	defer rows.Close()

	persons := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Color); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}
	return persons, nil
}

func (s *SQLiteStore) getAssignments(ctx context.Context, calcID string) ([]models.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, person_id FROM expert_assignments WHERE calculation_id = ? ORDER BY position",
		calcID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ItemID, &a.PersonID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

// receiptDataArg stores an empty receipt as NULL.
func receiptDataArg(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
