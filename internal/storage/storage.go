// Package storage persists signed proposals and their rendered documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrDocumentNotFound is returned when no document is stored under a name.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned when a proposal id is reused.
	ErrAlreadyExists = errors.New("proposal already exists")

	// ErrDocumentExists is returned when a document name is reused.
	ErrDocumentExists = errors.New("document already exists")
)

// Config selects and configures a storage backend.
type Config struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

// ListOptions filters proposal listings. A zero Status matches every status
// and a non-positive Limit returns all rows.
type ListOptions struct {
	Status proposal.Status
	Limit  int
}

// Document is a rendered proposal file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Store is implemented by every persistence backend.
type Store interface {
	CreateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error)
	GetProposal(ctx context.Context, id string) (proposal.Proposal, error)
	ListProposals(ctx context.Context, opts ListOptions) ([]proposal.Proposal, error)
	UpdateStatus(ctx context.Context, id string, status proposal.Status) (proposal.Proposal, error)
	PutDocument(ctx context.Context, name, contentType string, data []byte) (string, error)
	GetDocument(ctx context.Context, nameOrReference string) (Document, error)
	DeleteDocument(ctx context.Context, nameOrReference string) error
	Close() error
}

// Open connects to the configured backend, applying migrations first when
// the configuration asks for it.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case constants.StorageDriverMemory, "":
		return NewMemoryStore(logger), nil
	case constants.StorageDriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = constants.DefaultSQLiteDSN
		}
		return OpenSQLite(ctx, dsn, cfg.Migrate, logger)
	case constants.StorageDriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.Migrate, logger)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}

// DocumentReference returns the opaque reference handed out for a stored document.
func DocumentReference(name string) string {
	return constants.DocumentReferencePrefix + name
}

// DocumentName extracts the document name from a reference. Bare names are
// returned unchanged.
func DocumentName(reference string) string {
	return strings.TrimPrefix(reference, constants.DocumentReferencePrefix)
}

// prepareProposal fills in the identity and timestamps of a new proposal.
func prepareProposal(p proposal.Proposal, now time.Time) (proposal.Proposal, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	} else if _, err := uuid.Parse(p.ID); err != nil {
		return p, fmt.Errorf("invalid proposal id %q: %w", p.ID, err)
	}
	if p.Status == "" {
		p.Status = proposal.StatusPending
	}
	if _, err := proposal.ParseStatus(string(p.Status)); err != nil {
		return p, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == proposal.StatusSigned && p.SignedAt == nil {
		signedAt := now
		p.SignedAt = &signedAt
	}
	return p, nil
}

// applyTransition validates and applies a status change in place.
func applyTransition(p *proposal.Proposal, status proposal.Status, now time.Time) error {
	if _, err := proposal.ParseStatus(string(status)); err != nil {
		return err
	}
	if !proposal.CanTransition(p.Status, status) {
		return fmt.Errorf("%w: %s to %s", proposal.ErrInvalidTransition, p.Status, status)
	}
	p.Status = status
	p.UpdatedAt = now
	if status == proposal.StatusSigned && p.SignedAt == nil {
		signedAt := now
		p.SignedAt = &signedAt
	}
	return nil
}

// setAmounts parses the textual money columns shared by the SQL backends.
func setAmounts(r *proposal.Record, financed, down, rate, monthly, total string) error {
	amounts := []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{financed, &r.FinancedAmount},
		{down, &r.DownPayment},
		{rate, &r.InterestRate},
		{monthly, &r.MonthlyPayment},
		{total, &r.TotalAmount},
	}
	for _, amount := range amounts {
		value, err := decimal.NewFromString(amount.raw)
		if err != nil {
			return fmt.Errorf("invalid stored amount %q: %w", amount.raw, err)
		}
		*amount.dest = value
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validateDocumentName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
