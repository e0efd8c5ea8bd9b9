package proposal

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a persisted proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSigned   Status = "signed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound          = errors.New("proposal not found")
	ErrInvalidStatus     = errors.New("invalid proposal status")
	ErrInvalidTransition = errors.New("invalid proposal status transition")
)

// Proposal is a finalized record as stored by the persistence backend.
type Proposal struct {
	ID            string     `json:"id"`
	Record        Record     `json:"record"`
	Status        Status     `json:"status"`
	SignatureData string     `json:"signatureData,omitempty"`
	SignedAt      *time.Time `json:"signedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusPending, StatusSigned, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether a proposal may move from one status to another.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusSigned
	case StatusSigned:
		return to == StatusApproved || to == StatusRejected
	}
	return false
}

// Label returns the pt-BR badge text shown in the admin listing.
func (s Status) Label() string {
	switch s {
	case StatusSigned:
		return "Assinado"
	case StatusApproved:
		return "Aprovado"
	case StatusRejected:
		return "Rejeitado"
	}
	return "Pendente"
}
