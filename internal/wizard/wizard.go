// Package wizard drives an applicant through the financing steps, gating
// each advance on validation and finalizing the proposal on signature.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/internal/session"
	"github.com/iwvelando/financing-wizard/pkg/loans"
	"github.com/iwvelando/financing-wizard/pkg/output"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Wizard steps.
const (
	StepFinancial    = 1
	StepPersonal     = 2
	StepConfirmation = 3
	StepSignature    = 4
)

var (
	ErrFinalized          = errors.New("wizard session already finalized")
	ErrSignatureRequired  = errors.New("signature is required")
	ErrInvalidSignature   = errors.New("signature must be a PNG data URL")
	ErrNotAtSignatureStep = errors.New("signature is only accepted on the signature step")
)

// StepError lists the fields blocking the given step.
type StepError struct {
	Step   int
	Fields []proposal.FieldError
}

func (e *StepError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, field.Error())
	}
	return fmt.Sprintf("step %d is incomplete: %s", e.Step, strings.Join(messages, "; "))
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	FinancedAmount *decimal.Decimal `json:"financedAmount,omitempty"`
	DownPayment    *decimal.Decimal `json:"downPayment,omitempty"`
	TermMonths     *int             `json:"termMonths,omitempty"`
	FullName       *string          `json:"fullName,omitempty"`
	CPF            *string          `json:"cpf,omitempty"`
	Email          *string          `json:"email,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
}

// Validate checks the numeric fields against the calculator bounds.
func (p Patch) Validate() error {
	for _, amount := range []*decimal.Decimal{p.FinancedAmount, p.DownPayment} {
		if amount == nil {
			continue
		}
		if err := validation.CheckAmount(*amount); err != nil {
			return err
		}
	}
	if p.TermMonths != nil {
		return validation.CheckTerm(*p.TermMonths)
	}
	return nil
}

// Renderer turns a proposal into a storable document.
type Renderer interface {
	Format() string
	Render(doc output.Document) (output.Rendered, error)
}

// ProposalStore persists finalized proposals.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p proposal.Proposal) (proposal.Proposal, error)
}

// DocumentStore stores rendered documents and returns an opaque reference.
// PutDocument never replaces an existing document.
type DocumentStore interface {
	PutDocument(ctx context.Context, name, contentType string, data []byte) (string, error)
	DeleteDocument(ctx context.Context, reference string) error
}

// Dependencies are the collaborators a Service needs.
type Dependencies struct {
	Sessions  session.Store
	Proposals ProposalStore
	Documents DocumentStore
	Renderer  Renderer
}

// Service implements the wizard operations on top of a session store.
type Service struct {
	rules     proposal.Rules
	sessions  session.Store
	proposals ProposalStore
	documents DocumentStore
	renderer  Renderer
	schedule  *loans.AmortizationScheduleGenerator
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires a wizard service.
func NewService(rules proposal.Rules, deps Dependencies, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rules:     rules,
		sessions:  deps.Sessions,
		proposals: deps.Proposals,
		documents: deps.Documents,
		renderer:  deps.Renderer,
		schedule:  loans.NewAmortizationScheduleGenerator(logger),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Rules returns the business rules the service validates against.
func (s *Service) Rules() proposal.Rules {
	return s.rules
}

// Start opens a new session on the financial step.
func (s *Service) Start(ctx context.Context) (session.Session, error) {
	now := s.now()
	sess := session.Session{
		ID:        uuid.NewString(),
		Step:      StepFinancial,
		Record:    proposal.NewRecord(s.rules),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to start session: %w", err)
	}

	s.logger.Debug("started wizard session",
		zap.String("op", "wizard.Start"),
		zap.String("session", sess.ID),
	)
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (session.Session, error) {
	return s.sessions.Load(ctx, id)
}

// Delete discards a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.sessions.Load(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// Update applies a patch, storing CPF and phone masked, and recomputes the
// payment values. Amounts and terms outside the calculator bounds are
// rejected before anything is applied.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (session.Session, error) {
	sess, err := s.loadOpen(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if err := patch.Validate(); err != nil {
		return sess, err
	}

	applyPatch(&sess.Record, patch)
	sess.Record.Recompute()
	return s.save(ctx, sess)
}

// Next advances one step once the current step validates. The signature
// step is the last one; advancing from it leaves the session unchanged.
func (s *Service) Next(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.loadOpen(ctx, id)
	if err != nil {
		return session.Session{}, err
	}

	if fields := s.gate(sess.Step, sess.Record); len(fields) > 0 {
		s.logger.Debug("step gate rejected advance",
			zap.String("op", "wizard.Next"),
			zap.String("session", id),
			zap.Int("step", sess.Step),
			zap.Int("fields", len(fields)),
		)
		return sess, &StepError{Step: sess.Step, Fields: fields}
	}

	if sess.Step >= StepSignature {
		return sess, nil
	}
	sess.Step++
	return s.save(ctx, sess)
}

// Previous goes back one step, never below the first.
func (s *Service) Previous(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.loadOpen(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Step <= StepFinancial {
		return sess, nil
	}
	sess.Step--
	return s.save(ctx, sess)
}

// Restart clears the session back to an empty record on the first step,
// keeping its id. Finalized sessions may be restarted.
func (s *Service) Restart(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return session.Session{}, err
	}

	now := s.now()
	sess = session.Session{
		ID:        sess.ID,
		Step:      StepFinancial,
		Record:    proposal.NewRecord(s.rules),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to restart session %s: %w", id, err)
	}
	return sess, nil
}

// Sign finalizes the session: it renders and stores the document, persists
// the signed proposal and marks the session completed. The first
// collaborator failure aborts the operation and leaves the session open.
func (s *Service) Sign(ctx context.Context, id, signatureDataURL string) (session.Session, proposal.Proposal, error) {
	sess, err := s.loadOpen(ctx, id)
	if err != nil {
		return session.Session{}, proposal.Proposal{}, err
	}
	if sess.Step != StepSignature {
		return sess, proposal.Proposal{}, ErrNotAtSignatureStep
	}
	if err := ValidateSignature(signatureDataURL); err != nil {
		return sess, proposal.Proposal{}, err
	}
	// Fields may have been patched after their step was passed.
	for _, step := range []int{StepFinancial, StepPersonal} {
		if fields := s.gate(step, sess.Record); len(fields) > 0 {
			return sess, proposal.Proposal{}, &StepError{Step: step, Fields: fields}
		}
	}

	signedAt := s.now()
	rendered, err := s.renderer.Render(s.Document(sess.Record, signatureDataURL, signedAt))
	if err != nil {
		return sess, proposal.Proposal{}, fmt.Errorf("failed to render proposal document: %w", err)
	}

	proposalID := uuid.NewString()
	name := output.FileName(rendered.Format, signedAt, proposalID)
	reference, err := s.documents.PutDocument(ctx, name, rendered.ContentType, rendered.Data)
	if err != nil {
		return sess, proposal.Proposal{}, fmt.Errorf("failed to store proposal document: %w", err)
	}

	record := sess.Record
	record.PDFReference = reference
	stored, err := s.proposals.CreateProposal(ctx, proposal.Proposal{
		ID:            proposalID,
		Record:        record,
		Status:        proposal.StatusSigned,
		SignatureData: signatureDataURL,
		SignedAt:      &signedAt,
		CreatedAt:     signedAt,
	})
	if err != nil {
		s.discardDocument(ctx, reference)
		return sess, proposal.Proposal{}, fmt.Errorf("failed to persist proposal: %w", err)
	}

	sess.Record = record
	sess.Completed = true
	sess.ProposalID = stored.ID
	sess, err = s.save(ctx, sess)
	if err != nil {
		return session.Session{}, stored, err
	}

	s.logger.Info("proposal signed",
		zap.String("op", "wizard.Sign"),
		zap.String("session", id),
		zap.String("proposal", stored.ID),
		zap.String("document", reference),
	)
	return sess, stored, nil
}

// discardDocument removes a document whose proposal could not be stored. A
// failed removal is logged with the reference so it can be cleaned up by hand.
func (s *Service) discardDocument(ctx context.Context, reference string) {
	if err := s.documents.DeleteDocument(ctx, reference); err != nil {
		s.logger.Warn("orphaned proposal document",
			zap.String("op", "wizard.Sign"),
			zap.String("document", reference),
			zap.Error(err),
		)
	}
}

// Document assembles the printable proposal for a record.
func (s *Service) Document(r proposal.Record, signatureDataURL string, signedAt time.Time) output.Document {
	return output.Document{
		FullName:       validation.NormalizeFullName(r.FullName),
		CPF:            r.CPF,
		Email:          r.Email,
		Phone:          r.Phone,
		PropertyValue:  r.PropertyValue(),
		DownPayment:    r.DownPayment,
		FinancedAmount: r.FinancedAmount,
		InterestRate:   r.InterestRate,
		TermMonths:     r.TermMonths,
		MonthlyPayment: r.MonthlyPayment,
		TotalAmount:    r.TotalAmount,
		SignatureData:  signatureDataURL,
		SignedAt:       signedAt,
		Schedule:       s.schedule.GenerateSchedule(r.FinancedAmount, r.InterestRate, r.TermMonths),
	}
}

func (s *Service) gate(step int, r proposal.Record) []proposal.FieldError {
	switch step {
	case StepFinancial:
		return r.ValidateFinancial(s.rules)
	case StepPersonal:
		return r.ValidatePersonal()
	}
	return nil
}

func (s *Service) loadOpen(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Completed {
		return sess, ErrFinalized
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess session.Session) (session.Session, error) {
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return sess, nil
}

func applyPatch(r *proposal.Record, patch Patch) {
	if patch.FinancedAmount != nil {
		r.FinancedAmount = *patch.FinancedAmount
	}
	if patch.DownPayment != nil {
		r.DownPayment = *patch.DownPayment
	}
	if patch.TermMonths != nil {
		r.TermMonths = *patch.TermMonths
	}
	if patch.FullName != nil {
		r.FullName = *patch.FullName
	}
	if patch.CPF != nil {
		r.SetCPF(*patch.CPF)
	}
	if patch.Email != nil {
		r.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		r.SetPhone(*patch.Phone)
	}
}
