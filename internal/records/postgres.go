package records

import (
	"context"
	"database/sql"
	"errors"

	"factorylink/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Querier interface {
	Getter
	Selecter
}

// PostgresBackend keeps each sheet as a header array plus one text[] per
// row. A write replaces the sheet inside one serializable transaction.
type PostgresBackend struct {
	db       Querier
	txRunner db.TxRunner
}

func NewPostgresBackend(database Querier, txRunner db.TxRunner) *PostgresBackend {
	return &PostgresBackend{db: database, txRunner: txRunner}
}

type sheetRow struct {
	Position int            `db:"position"`
	Cells    pq.StringArray `db:"cells"`
}

func (p *PostgresBackend) ReadTable(ctx context.Context, sheet string) ([]string, [][]string, error) {
	var header pq.StringArray
	err := p.db.GetContext(ctx, &header, `SELECT header FROM sheets WHERE name = $1`, sheet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	var rows []sheetRow
	err = p.db.SelectContext(ctx, &rows, `
		SELECT position, cells
		FROM sheet_rows
		WHERE sheet = $1
		ORDER BY position
	`, sheet)
	if err != nil {
		return nil, nil, err
	}
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string(row.Cells))
	}
	return []string(header), cells, nil
}

func (p *PostgresBackend) WriteTable(ctx context.Context, sheet string, header []string, cells [][]string) error {
	return p.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return replaceSheet(ctx, tx, sheet, header, cells)
	})
}

func replaceSheet(ctx context.Context, tx Execer, sheet string, header []string, cells [][]string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sheets (name, header, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET header = EXCLUDED.header, updated_at = now()
	`, sheet, pq.Array(header)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = $1`, sheet); err != nil {
		return err
	}
	for i, line := range cells {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sheet_rows (sheet, position, cells)
			VALUES ($1, $2, $3)
		`, sheet, i, pq.Array(line)); err != nil {
			return err
		}
	}
	return nil
}
