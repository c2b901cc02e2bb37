package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextier/signal-engine/internal/domain"
)

// EconomicDataRepository implements domain.EconomicDataRepository using
// PostgreSQL. Unlike the per-signal collections, this table holds one
// mutable reference row per state/LGA rather than an append-only document
// history — the periodic economic-data refresh replaces it wholesale.
type EconomicDataRepository struct {
	db *sql.DB
}

// NewEconomicDataRepository creates a new economic-data repository.
func NewEconomicDataRepository(db *sql.DB) *EconomicDataRepository {
	return &EconomicDataRepository{db: db}
}

// Load returns the full economic reference table.
func (r *EconomicDataRepository) Load(ctx context.Context) ([]domain.EconomicRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state, lga, fuel_price, inflation FROM economic_data`)
	if err != nil {
		return nil, fmt.Errorf("load economic data: %w", err)
	}
	defer rows.Close()

	var out []domain.EconomicRow
	for rows.Next() {
		var row domain.EconomicRow
		if err := rows.Scan(&row.State, &row.LGA, &row.FuelPrice, &row.Inflation); err != nil {
			return nil, fmt.Errorf("scan economic row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Replace atomically swaps the stored reference table for a new one.
func (r *EconomicDataRepository) Replace(ctx context.Context, rows []domain.EconomicRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM economic_data`); err != nil {
		return fmt.Errorf("clear economic data: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO economic_data (state, lga, fuel_price, inflation) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.State, row.LGA, row.FuelPrice, row.Inflation); err != nil {
			return fmt.Errorf("insert economic row: %w", err)
		}
	}

	return tx.Commit()
}
