// Package sqlite exports the cleaned table to a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/radon-data-etl/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS clean_readings (
	variant        TEXT    NOT NULL,
	idnum          INTEGER NOT NULL,
	state          TEXT    NOT NULL,
	county         TEXT    NOT NULL,
	county_idx     INTEGER,
	state_county   TEXT,
	floor          INTEGER NOT NULL,
	is_basement    INTEGER NOT NULL,
	county_uranium REAL    NOT NULL,
	radon          REAL    NOT NULL,
	PRIMARY KEY (variant, idnum)
)`

// Store writes cleaned rows to the clean_readings table. It implements
// pipeline.Loader.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite database and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	sqlDB, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

// Load replaces the rows of variant v with rows in a single transaction, so
// the table always holds the output of one complete run per variant.
func (s *Store) Load(ctx context.Context, v domain.Variant, rows []domain.CleanRow) (err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM clean_readings WHERE variant = ?`, string(v)); err != nil {
		return fmt.Errorf("clear variant %s: %w", v, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clean_readings
		(variant, idnum, state, county, county_idx, state_county, floor, is_basement, county_uranium, radon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := rows[i]
		var countyIdx, stateCounty any
		if v == domain.VariantStateCounty {
			stateCounty = r.StateCounty
		} else {
			countyIdx = r.CountyIdx
		}
		if _, err = stmt.ExecContext(ctx,
			string(v), r.IDNum, r.State, r.County, countyIdx, stateCounty,
			r.Floor, r.IsBasement, r.CountyUranium, r.Radon,
		); err != nil {
			return fmt.Errorf("insert idnum %d: %w", r.IDNum, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rows reads back the stored rows of a variant in idnum order.
func (s *Store) Rows(ctx context.Context, v domain.Variant) ([]domain.CleanRow, error) {
	rs, err := s.sqlDB.QueryContext(ctx, `SELECT idnum, state, county, county_idx, state_county,
		floor, is_basement, county_uranium, radon
		FROM clean_readings WHERE variant = ? ORDER BY idnum`, string(v))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rs.Close()

	var out []domain.CleanRow
	for rs.Next() {
		var (
			r           domain.CleanRow
			countyIdx   sql.NullInt64
			stateCounty sql.NullString
		)
		if err := rs.Scan(&r.IDNum, &r.State, &r.County, &countyIdx, &stateCounty,
			&r.Floor, &r.IsBasement, &r.CountyUranium, &r.Radon); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.CountyIdx = int(countyIdx.Int64)
		r.StateCounty = stateCounty.String
		out = append(out, r)
	}
	return out, rs.Err()
}
