package migration

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const (
	residentsTable      = "residents"
	disableReasonColumn = "disable_reason"
)

// DisableReason adds or drops the nullable residents.disable_reason column.
// Both directions check the column first, so re-running either is a no-op.
// Postgres appends new columns, so the column lands after for_review only
// when for_review is the last column.
type DisableReason struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDisableReason(db *sql.DB, logger *zap.Logger) *DisableReason {
	return &DisableReason{db: db, logger: logger}
}

// HasColumn reports whether table.column exists in the current schema
func HasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			  AND table_name = $1
			  AND column_name = $2
		)`, table, column).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	return exists, nil
}

// Up reports whether the column was added
func (m *DisableReason) Up(ctx context.Context) (bool, error) {
	exists, err := HasColumn(ctx, m.db, residentsTable, disableReasonColumn)
	if err != nil {
		return false, err
	}
	if exists {
		m.logger.Info("Column already exists, skipping", zap.String("column", disableReasonColumn))
		return false, nil
	}
	if _, err := m.db.ExecContext(ctx, `ALTER TABLE residents ADD COLUMN disable_reason VARCHAR(255) NULL`); err != nil {
		return false, fmt.Errorf("failed to add column %s: %w", disableReasonColumn, err)
	}
	m.logger.Info("Column added", zap.String("table", residentsTable), zap.String("column", disableReasonColumn))
	return true, nil
}

// Down reports whether the column was dropped
func (m *DisableReason) Down(ctx context.Context) (bool, error) {
	exists, err := HasColumn(ctx, m.db, residentsTable, disableReasonColumn)
	if err != nil {
		return false, err
	}
	if !exists {
		m.logger.Info("Column does not exist, skipping", zap.String("column", disableReasonColumn))
		return false, nil
	}
	if _, err := m.db.ExecContext(ctx, `ALTER TABLE residents DROP COLUMN disable_reason`); err != nil {
		return false, fmt.Errorf("failed to drop column %s: %w", disableReasonColumn, err)
	}
	m.logger.Info("Column dropped", zap.String("table", residentsTable), zap.String("column", disableReasonColumn))
	return true, nil
}
