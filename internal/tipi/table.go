// Package tipi holds the TIPI rate table and resolves NCM product codes
// against it.
//
// The table is refreshed out-of-band by an import job; during a processing
// session it is read-only. Reload swaps the whole index at once so
// concurrent readers never observe a half-updated table.
package tipi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// RateNotTaxed is the sentinel rate for non-taxed products ("NT");
// rates are kept as text because of it.
const RateNotTaxed = "NT"

// Record is one row of the TIPI table, keyed by (NCM, exception code).
// An empty exception code denotes the NCM's own general rate.
type Record struct {
	NCM         string `json:"ncm"`
	Ex          string `json:"ex"`
	Description string `json:"descricao"`
	Rate        string `json:"aliquota"`
}

func key(ncm, ex string) string {
	return ncm + "|" + ex
}

// Table is the in-memory TIPI index
type Table struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{records: map[string]Record{}}
}

// Reload atomically replaces the table contents
func (t *Table) Reload(records []Record) {
	index := make(map[string]Record, len(records))
	for _, r := range records {
		index[key(r.NCM, r.Ex)] = r
	}
	t.mu.Lock()
	t.records = index
	t.mu.Unlock()
}

// Len returns the number of indexed records
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

func (t *Table) lookup(ncm, ex string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[key(ncm, ex)]
	return r, ok
}

// LoadSQL reads every TIPI row from the tipi table of the given database
func LoadSQL(ctx context.Context, db *sql.DB) ([]Record, error) {
	rows, err := db.QueryContext(ctx, `SELECT ncm, ex, descricao, aliquota FROM tipi`)
	if err != nil {
		return nil, fmt.Errorf("query tipi table: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.NCM, &r.Ex, &r.Description, &r.Rate); err != nil {
			return nil, fmt.Errorf("scan tipi row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tipi rows: %w", err)
	}
	return records, nil
}

// LoadJSON reads TIPI records from the JSON export of the import job
func LoadJSON(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode tipi json: %w", err)
	}
	return records, nil
}
