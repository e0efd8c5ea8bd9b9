package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iwvelando/financing-wizard/internal/proposal"
	"go.uber.org/zap"
)

// MemoryStore keeps proposals and documents in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	proposals map[string]proposal.Proposal
	documents map[string]Document
	now       func() time.Time
	logger    *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		proposals: make(map[string]proposal.Proposal),
		documents: make(map[string]Document),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

func (s *MemoryStore) CreateProposal(_ context.Context, p proposal.Proposal) (proposal.Proposal, error) {
	p, err := prepareProposal(p, s.now())
	if err != nil {
		return proposal.Proposal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[p.ID]; exists {
		return proposal.Proposal{}, ErrAlreadyExists
	}
	s.proposals[p.ID] = p
	s.logger.Debug("stored proposal",
		zap.String("op", "storage.MemoryStore.CreateProposal"),
		zap.String("id", p.ID),
		zap.String("status", string(p.Status)),
	)
	return p, nil
}

func (s *MemoryStore) GetProposal(_ context.Context, id string) (proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListProposals(_ context.Context, opts ListOptions) ([]proposal.Proposal, error) {
	s.mu.RLock()
	result := make([]proposal.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		result = append(result, p)
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status proposal.Status) (proposal.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return proposal.Proposal{}, proposal.ErrNotFound
	}
	if err := applyTransition(&p, status, s.now()); err != nil {
		return proposal.Proposal{}, err
	}
	s.proposals[id] = p
	return p, nil
}

func (s *MemoryStore) PutDocument(_ context.Context, name, contentType string, data []byte) (string, error) {
	if err := validateDocumentName(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[name]; exists {
		return "", fmt.Errorf("%w: %s", ErrDocumentExists, name)
	}
	s.documents[name] = Document{
		Name:        name,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
		CreatedAt:   s.now(),
	}
	return DocumentReference(name), nil
}

func (s *MemoryStore) GetDocument(_ context.Context, nameOrReference string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[DocumentName(nameOrReference)]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	doc.Data = append([]byte(nil), doc.Data...)
	return doc, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, nameOrReference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := DocumentName(nameOrReference)
	if _, ok := s.documents[name]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.documents, name)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
