// Package store persists audited fiscal documents in SQLite.
//
// Writes are idempotent upserts keyed by access key: the single
// INSERT ... ON CONFLICT DO UPDATE statement is transactional, and SQLite
// serializes writers, so concurrent upserts of the same key cannot
// interleave (last write wins).
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/fiscalia/nfe-auditor/internal/model"
)

const dateLayout = "2006-01-02"

// Store persists fiscal document records in SQLite
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite store and applies migrations.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// DB exposes the underlying handle so the TIPI table can share the file
func (s *Store) DB() *sql.DB {
	return s.sqlDB
}

// Upsert writes one record, inserting or overwriting all non-key columns.
// It returns the access key actually used: scanned documents without a key
// get a deterministic surrogate derived from the other identifying fields,
// so re-processing the same document stays idempotent.
func (s *Store) Upsert(ctx context.Context, rec model.PersistedRecord) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", &StorageError{Op: "upsert", Cause: fmt.Errorf("storage is not configured")}
	}

	key := strings.TrimSpace(rec.AccessKey)
	if key == "" {
		if rec.IssuerCNPJ == "" && rec.Total.IsZero() {
			return "", &IncompletePayloadError{
				Message: "record has no access key and no other identifying field",
			}
		}
		key = surrogateKey(rec)
	}

	issueDate := ""
	if !rec.IssueDate.IsZero() {
		issueDate = rec.IssueDate.UTC().Format(dateLayout)
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO fiscal_documents (
		  access_key, issuer_cnpj, total_amount, issue_date,
		  document_kind, category, cost_center, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(access_key) DO UPDATE SET
		  issuer_cnpj   = excluded.issuer_cnpj,
		  total_amount  = excluded.total_amount,
		  issue_date    = excluded.issue_date,
		  document_kind = excluded.document_kind,
		  category      = excluded.category,
		  cost_center   = excluded.cost_center,
		  updated_at    = excluded.updated_at`,
		key,
		rec.IssuerCNPJ,
		rec.Total.StringFixed(2),
		issueDate,
		string(rec.Kind),
		string(rec.Category),
		string(rec.CostCenter),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		if isConstraintErr(err) {
			return key, &ConflictError{AccessKey: key, Cause: err}
		}
		return "", &StorageError{Op: "upsert", Cause: err}
	}
	return key, nil
}

// List returns every persisted record, newest write first
func (s *Store) List(ctx context.Context) ([]model.PersistedRecord, error) {
	if s == nil || s.sqlDB == nil {
		return nil, &StorageError{Op: "list", Cause: fmt.Errorf("storage is not configured")}
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT access_key, issuer_cnpj, total_amount, issue_date,
		       document_kind, category, cost_center
		FROM fiscal_documents
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, &StorageError{Op: "list", Cause: err}
	}
	defer rows.Close()

	var records []model.PersistedRecord
	for rows.Next() {
		var rec model.PersistedRecord
		var total, issueDate, kind, category, costCenter string
		if err := rows.Scan(&rec.AccessKey, &rec.IssuerCNPJ, &total, &issueDate,
			&kind, &category, &costCenter); err != nil {
			return nil, &StorageError{Op: "list", Cause: err}
		}
		rec.Total, err = decimal.NewFromString(total)
		if err != nil {
			return nil, &StorageError{Op: "list", Cause: fmt.Errorf("bad stored amount %q: %w", total, err)}
		}
		if issueDate != "" {
			rec.IssueDate, err = time.Parse(dateLayout, issueDate)
			if err != nil {
				return nil, &StorageError{Op: "list", Cause: fmt.Errorf("bad stored date %q: %w", issueDate, err)}
			}
		}
		rec.Kind = model.DocumentKind(kind)
		rec.Category = model.Category(category)
		rec.CostCenter = model.CostCenter(costCenter)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Cause: err}
	}
	return records, nil
}

func surrogateKey(rec model.PersistedRecord) string {
	seed := fmt.Sprintf("%s|%s|%s", rec.IssuerCNPJ, rec.IssueDate.UTC().Format(dateLayout), rec.Total.StringFixed(2))
	sum := sha256.Sum256([]byte(seed))
	return "SEM-CHAVE-" + hex.EncodeToString(sum[:8])
}

func isConstraintErr(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT ||
			code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
