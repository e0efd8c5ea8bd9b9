package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/internal/storage"
	"github.com/iwvelando/financing-wizard/pkg/datetime"
	"go.uber.org/zap"
)

const maxListLimit = 500

type statusRequest struct {
	Status string `json:"status"`
}

// proposalView adds the pt-BR labels shown in the admin listing.
type proposalView struct {
	proposal.Proposal
	StatusLabel      string `json:"statusLabel"`
	CreatedAtDisplay string `json:"createdAtDisplay"`
	SignedAtDisplay  string `json:"signedAtDisplay,omitempty"`
}

func newProposalView(p proposal.Proposal) proposalView {
	view := proposalView{
		Proposal:         p,
		StatusLabel:      p.Status.Label(),
		CreatedAtDisplay: datetime.FormatDateTime(p.CreatedAt),
	}
	if p.SignedAt != nil {
		view.SignedAtDisplay = datetime.FormatDateTime(*p.SignedAt)
	}
	return view
}

type proposalListResponse struct {
	Proposals []proposalView `json:"proposals"`
	Count     int            `json:"count"`
}

func (h *handler) handleListProposals(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListProposals"

	opts := storage.ListOptions{Limit: maxListLimit}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := proposal.ParseStatus(raw)
		if err != nil {
			h.respondServiceError(w, err, op)
			return
		}
		opts.Status = status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		if limit < maxListLimit {
			opts.Limit = limit
		}
	}

	proposals, err := h.store.ListProposals(r.Context(), opts)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	views := make([]proposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, newProposalView(p))
	}
	h.writeJSON(w, http.StatusOK, proposalListResponse{Proposals: views, Count: len(views)})
}

func (h *handler) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProposal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleGetProposal")
		return
	}
	h.writeJSON(w, http.StatusOK, newProposalView(p))
}

func (h *handler) handleGetProposalDocument(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetProposalDocument"

	p, err := h.store.GetProposal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	doc, err := h.store.GetDocument(r.Context(), p.Record.PDFReference)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeDocument(w, doc, op)
}

func (h *handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateStatus"

	var req statusRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	status, err := proposal.ParseStatus(req.Status)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.store.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	h.metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	h.logger.Info("proposal status changed",
		zap.String("op", op),
		zap.String("proposal", id),
		zap.String("status", string(status)),
	)
	h.writeJSON(w, http.StatusOK, newProposalView(updated))
}
