package tipi

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV reads TIPI records from a CSV export with an
// ncm,ex,descricao,aliquota header row.
func LoadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read tipi csv header: %w", err)
	}
	if len(header) != 4 || strings.ToLower(strings.TrimSpace(header[0])) != "ncm" {
		return nil, fmt.Errorf("unexpected tipi csv header: %v", header)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tipi csv row: %w", err)
		}
		records = append(records, Record{
			NCM:         strings.TrimSpace(row[0]),
			Ex:          strings.TrimSpace(row[1]),
			Description: strings.TrimSpace(row[2]),
			Rate:        strings.TrimSpace(row[3]),
		})
	}
	return records, nil
}

// LoadFile loads TIPI records from a JSON or CSV export file
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tipi export: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported tipi export format: %s", filepath.Ext(path))
	}
}

// Import replaces the tipi table contents with the given records inside a
// single transaction, so concurrent readers keep seeing the previous
// snapshot until the commit.
func Import(ctx context.Context, db *sql.DB, records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("refusing to import an empty tipi table")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tipi import: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tipi`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear tipi table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tipi (ncm_ex, ncm, ex, descricao, aliquota) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare tipi insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, key(r.NCM, r.Ex), r.NCM, r.Ex, r.Description, r.Rate); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert tipi record %s: %w", r.NCM, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tipi import: %w", err)
	}
	return nil
}
