package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Fixed-width UTC timestamps so lexical order matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const proposalColumns = `id, created_at, updated_at, financed_amount, down_payment, interest_rate,
	term_months, monthly_payment, total_amount, full_name, cpf, email, phone,
	signed_at, signature_data, pdf_url, status`

// SQLiteStore persists proposals in an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// OpenSQLite opens (creating if necessary) the database at dsn.
func OpenSQLite(ctx context.Context, dsn string, migrate bool, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
	}

	if migrate {
		if err := Migrate(ctx, db, goose.DialectSQLite3, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	logger.Info("opened sqlite store",
		zap.String("op", "storage.OpenSQLite"),
		zap.String("dsn", dsn),
	)
	return &SQLiteStore{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}, nil
}

// withPragmas applies the connection pragmas to every pooled connection.
func withPragmas(dsn string) string {
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// DB exposes the underlying handle for migrations.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) CreateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	p, err := prepareProposal(p, s.now())
	if err != nil {
		return proposal.Proposal{}, err
	}

	r := p.Record
	_, err = s.db.ExecContext(ctx, `INSERT INTO financing_proposals (`+proposalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, formatSQLiteTime(p.CreatedAt), formatSQLiteTime(p.UpdatedAt),
		r.FinancedAmount.String(), r.DownPayment.String(), r.InterestRate.String(),
		r.TermMonths, r.MonthlyPayment.String(), r.TotalAmount.String(),
		r.FullName, r.CPF, r.Email, r.Phone,
		nullableSQLiteTime(p.SignedAt), p.SignatureData, r.PDFReference, string(p.Status),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return proposal.Proposal{}, ErrAlreadyExists
		}
		return proposal.Proposal{}, fmt.Errorf("failed to insert proposal %s: %w", p.ID, err)
	}
	s.logger.Debug("stored proposal",
		zap.String("op", "storage.SQLiteStore.CreateProposal"),
		zap.String("id", p.ID),
		zap.String("status", string(p.Status)),
	)
	return p, nil
}

func (s *SQLiteStore) GetProposal(ctx context.Context, id string) (proposal.Proposal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM financing_proposals WHERE id = ?`, id)
	p, err := scanSQLiteProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to load proposal %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProposals(ctx context.Context, opts ListOptions) ([]proposal.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM financing_proposals`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	result := []proposal.Proposal{}
	for rows.Next() {
		p, err := scanSQLiteProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proposals: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status proposal.Status) (proposal.Proposal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM financing_proposals WHERE id = ?`, id)
	p, err := scanSQLiteProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to load proposal %s: %w", id, err)
	}

	if err := applyTransition(&p, status, s.now()); err != nil {
		return proposal.Proposal{}, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE financing_proposals SET status = ?, updated_at = ?, signed_at = ? WHERE id = ?`,
		string(p.Status), formatSQLiteTime(p.UpdatedAt), nullableSQLiteTime(p.SignedAt), p.ID)
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to update proposal %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to commit status change: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) PutDocument(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := validateDocumentName(name); err != nil {
		return "", err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO proposal_documents (name, content_type, data, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING`,
		name, contentType, data, formatSQLiteTime(s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", name, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", name, err)
	}
	if inserted == 0 {
		return "", fmt.Errorf("%w: %s", ErrDocumentExists, name)
	}
	return DocumentReference(name), nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, nameOrReference string) (Document, error) {
	var (
		doc       Document
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT name, content_type, data, created_at FROM proposal_documents WHERE name = ?`,
		DocumentName(nameOrReference)).Scan(&doc.Name, &doc.ContentType, &doc.Data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to load document %s: %w", nameOrReference, err)
	}
	if doc.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, nameOrReference string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM proposal_documents WHERE name = ?`, DocumentName(nameOrReference))
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", nameOrReference, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", nameOrReference, err)
	}
	if deleted == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProposal(row rowScanner) (proposal.Proposal, error) {
	var (
		p                                    proposal.Proposal
		createdAt, updatedAt                 string
		financed, down, rate, monthly, total string
		status                               string
		signedAt                             sql.NullString
	)
	err := row.Scan(&p.ID, &createdAt, &updatedAt, &financed, &down, &rate,
		&p.Record.TermMonths, &monthly, &total,
		&p.Record.FullName, &p.Record.CPF, &p.Record.Email, &p.Record.Phone,
		&signedAt, &p.SignatureData, &p.Record.PDFReference, &status)
	if err != nil {
		return proposal.Proposal{}, err
	}

	p.Status = proposal.Status(status)
	if p.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return proposal.Proposal{}, err
	}
	if p.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return proposal.Proposal{}, err
	}
	if signedAt.Valid {
		t, err := parseSQLiteTime(signedAt.String)
		if err != nil {
			return proposal.Proposal{}, err
		}
		p.SignedAt = &t
	}

	if err := setAmounts(&p.Record, financed, down, rate, monthly, total); err != nil {
		return proposal.Proposal{}, err
	}
	return p, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableSQLiteTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatSQLiteTime(*t)
}

func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", value, err)
	}
	return t, nil
}
