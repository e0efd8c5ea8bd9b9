package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const postgresProposalColumns = `id::text, created_at, updated_at, financed_amount::text, down_payment::text,
	interest_rate::text, term_months, monthly_payment::text, total_amount::text, full_name, cpf, email,
	phone, signed_at, signature_data, pdf_url, status`

// PostgresStore persists proposals in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *zap.Logger
}

// OpenPostgres connects to the database at url.
func OpenPostgres(ctx context.Context, url string, migrate bool, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	if migrate {
		db := stdlib.OpenDBFromPool(pool)
		err := Migrate(ctx, db, goose.DialectPostgres, logger)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	logger.Info("opened postgres store",
		zap.String("op", "storage.OpenPostgres"),
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("database", cfg.ConnConfig.Database),
	)
	return &PostgresStore{
		pool:   pool,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}, nil
}

func (s *PostgresStore) CreateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	p, err := prepareProposal(p, s.now())
	if err != nil {
		return proposal.Proposal{}, err
	}

	r := p.Record
	_, err = s.pool.Exec(ctx, `INSERT INTO financing_proposals (id, created_at, updated_at, financed_amount,
			down_payment, interest_rate, term_months, monthly_payment, total_amount, full_name, cpf, email,
			phone, signed_at, signature_data, pdf_url, status)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8::numeric, $9::numeric,
			$10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID, p.CreatedAt, p.UpdatedAt,
		r.FinancedAmount.String(), r.DownPayment.String(), r.InterestRate.String(),
		r.TermMonths, r.MonthlyPayment.String(), r.TotalAmount.String(),
		r.FullName, r.CPF, r.Email, r.Phone,
		p.SignedAt, p.SignatureData, r.PDFReference, string(p.Status),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return proposal.Proposal{}, ErrAlreadyExists
		}
		return proposal.Proposal{}, fmt.Errorf("failed to insert proposal %s: %w", p.ID, err)
	}
	s.logger.Debug("stored proposal",
		zap.String("op", "storage.PostgresStore.CreateProposal"),
		zap.String("id", p.ID),
		zap.String("status", string(p.Status)),
	)
	return p, nil
}

func (s *PostgresStore) GetProposal(ctx context.Context, id string) (proposal.Proposal, error) {
	if !isUUID(id) {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+postgresProposalColumns+` FROM financing_proposals WHERE id = $1::uuid`, id)
	p, err := scanPostgresProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to load proposal %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProposals(ctx context.Context, opts ListOptions) ([]proposal.Proposal, error) {
	query := `SELECT ` + postgresProposalColumns + ` FROM financing_proposals`
	var args []any
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	result := []proposal.Proposal{}
	for rows.Next() {
		p, err := scanPostgresProposal(rows)
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

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status proposal.Status) (proposal.Proposal, error) {
	if !isUUID(id) {
		return proposal.Proposal{}, proposal.ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+postgresProposalColumns+` FROM financing_proposals WHERE id = $1::uuid FOR UPDATE`, id)
	p, err := scanPostgresProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to load proposal %s: %w", id, err)
	}

	if err := applyTransition(&p, status, s.now()); err != nil {
		return proposal.Proposal{}, err
	}

	_, err = tx.Exec(ctx, `UPDATE financing_proposals SET status = $1, updated_at = $2, signed_at = $3 WHERE id = $4::uuid`,
		string(p.Status), p.UpdatedAt, p.SignedAt, p.ID)
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to update proposal %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return proposal.Proposal{}, fmt.Errorf("failed to commit status change: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) PutDocument(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := validateDocumentName(name); err != nil {
		return "", err
	}
	tag, err := s.pool.Exec(ctx, `INSERT INTO proposal_documents (name, content_type, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`,
		name, contentType, data, s.now())
	if err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("%w: %s", ErrDocumentExists, name)
	}
	return DocumentReference(name), nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, nameOrReference string) (Document, error) {
	var doc Document
	err := s.pool.QueryRow(ctx, `SELECT name, content_type, data, created_at FROM proposal_documents WHERE name = $1`,
		DocumentName(nameOrReference)).Scan(&doc.Name, &doc.ContentType, &doc.Data, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to load document %s: %w", nameOrReference, err)
	}
	return doc, nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, nameOrReference string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM proposal_documents WHERE name = $1`, DocumentName(nameOrReference))
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", nameOrReference, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresProposal(row pgx.Row) (proposal.Proposal, error) {
	var (
		p                                    proposal.Proposal
		financed, down, rate, monthly, total string
		status                               string
	)
	err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &financed, &down, &rate,
		&p.Record.TermMonths, &monthly, &total,
		&p.Record.FullName, &p.Record.CPF, &p.Record.Email, &p.Record.Phone,
		&p.SignedAt, &p.SignatureData, &p.Record.PDFReference, &status)
	if err != nil {
		return proposal.Proposal{}, err
	}
	p.Status = proposal.Status(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	if err := setAmounts(&p.Record, financed, down, rate, monthly, total); err != nil {
		return proposal.Proposal{}, err
	}
	return p, nil
}
