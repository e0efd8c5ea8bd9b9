package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/financing-wizard/internal/metrics"
	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/internal/session"
	"github.com/iwvelando/financing-wizard/internal/storage"
	"github.com/iwvelando/financing-wizard/internal/wizard"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/format"
	"github.com/iwvelando/financing-wizard/pkg/loans"
	"github.com/iwvelando/financing-wizard/pkg/mathutil"
	"github.com/iwvelando/financing-wizard/pkg/output"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// amount accepts a JSON number, a decimal string or a masked BRL string such
// as "R$ 1.234,56".
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		if strings.Contains(raw, constants.CurrencySymbol) || strings.Contains(raw, ",") {
			a.Decimal = format.ParseCurrencyInput(raw)
			return nil
		}
	}
	return a.Decimal.UnmarshalJSON(trimmed)
}

type rulesResponse struct {
	AnnualRate          decimal.Decimal `json:"annualRate"`
	TermOptions         []int           `json:"termOptions"`
	MinDownPaymentRatio decimal.Decimal `json:"minDownPaymentRatio"`
}

type simulateRequest struct {
	FinancedAmount amount `json:"financedAmount"`
	DownPayment    amount `json:"downPayment"`
	TermMonths     int    `json:"termMonths"`
	Schedule       bool   `json:"schedule"`
}

type simulateResponse struct {
	FinancedAmount decimal.Decimal       `json:"financedAmount"`
	DownPayment    decimal.Decimal       `json:"downPayment"`
	PropertyValue  decimal.Decimal       `json:"propertyValue"`
	InterestRate   decimal.Decimal       `json:"interestRate"`
	TermMonths     int                   `json:"termMonths"`
	MonthlyPayment decimal.Decimal       `json:"monthlyPayment"`
	TotalAmount    decimal.Decimal       `json:"totalAmount"`
	DownPaymentPct decimal.Decimal       `json:"downPaymentPercent"`
	TotalInterest  *decimal.Decimal      `json:"totalInterest,omitempty"`
	Display        map[string]string     `json:"display"`
	Fields         []proposal.FieldError `json:"fields,omitempty"`
	Schedule       []loans.Installment   `json:"schedule,omitempty"`
}

type fieldRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type signRequest struct {
	Signature string `json:"signature"`
}

type signResponse struct {
	Session            session.Session `json:"session"`
	ProposalID         string          `json:"proposalId"`
	DocumentReference  string          `json:"documentReference"`
	DownloadName       string          `json:"downloadName"`
	DocumentURL        string          `json:"documentUrl"`
	DocumentURLExpires time.Time       `json:"documentUrlExpiresAt"`
}

func (h *handler) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := h.wizard.Rules()
	h.writeJSON(w, http.StatusOK, rulesResponse{
		AnnualRate:          rules.AnnualRate,
		TermOptions:         rules.TermOptions,
		MinDownPaymentRatio: rules.MinDownPaymentRatio,
	})
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"

	var req simulateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	for _, err := range []error{
		validation.CheckAmount(req.FinancedAmount.Decimal),
		validation.CheckAmount(req.DownPayment.Decimal),
		validation.CheckTerm(req.TermMonths),
	} {
		if err != nil {
			h.respondServiceError(w, err, op)
			return
		}
	}

	rules := h.wizard.Rules()
	record := proposal.NewRecord(rules)
	record.FinancedAmount = req.FinancedAmount.Decimal
	record.DownPayment = req.DownPayment.Decimal
	record.TermMonths = req.TermMonths
	record.Recompute()

	resp := simulateResponse{
		FinancedAmount: record.FinancedAmount,
		DownPayment:    record.DownPayment,
		PropertyValue:  record.PropertyValue(),
		InterestRate:   record.InterestRate,
		TermMonths:     record.TermMonths,
		MonthlyPayment: record.MonthlyPayment,
		TotalAmount:    record.TotalAmount,
		DownPaymentPct: mathutil.CalculatePercentage(record.DownPayment, record.PropertyValue()).Round(2),
		Display: map[string]string{
			"propertyValue":  format.Currency(record.PropertyValue()),
			"monthlyPayment": format.Currency(record.MonthlyPayment),
			"totalAmount":    format.Currency(record.TotalAmount),
			"minDownPayment": format.Currency(validation.MinimumDownPayment(record.FinancedAmount, rules.MinDownPaymentRatio)),
		},
		Fields: record.ValidateFinancial(rules),
	}
	if req.Schedule {
		resp.Schedule = loans.NewAmortizationScheduleGenerator(h.logger).
			GenerateSchedule(record.FinancedAmount, record.InterestRate, record.TermMonths)
		if len(resp.Schedule) > 0 {
			interest := loans.TotalInterest(resp.Schedule)
			resp.TotalInterest = &interest
		}
	}

	h.metrics.Simulations.Inc()
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleMask(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMask"

	var req fieldRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	var masked string
	switch req.Kind {
	case "cpf":
		masked = format.MaskCPF(req.Value)
	case "phone":
		masked = format.MaskPhone(req.Value)
	case "currency":
		masked = format.MaskCurrencyInput(req.Value)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported mask kind %q", req.Kind), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"value": masked})
}

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidate"

	var req fieldRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	var valid bool
	switch req.Kind {
	case "cpf":
		valid = validation.IsValidCPF(req.Value)
	case "phone":
		valid = validation.IsValidBrazilianPhone(req.Value)
	case "email":
		valid = validation.IsValidEmail(req.Value)
	case "name":
		valid = validation.IsValidFullName(req.Value)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported validation kind %q", req.Kind), op)
		return
	}

	result := "invalid"
	if valid {
		result = "valid"
	}
	h.metrics.Validations.WithLabelValues(req.Kind, result).Inc()
	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Start(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleStartSession")
		return
	}
	h.writeJSON(w, http.StatusCreated, sess)
}

func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleGetSession")
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.wizard.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err, "server.handleDeleteSession")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateSession"

	var patch wizard.Patch
	if !h.decodeJSON(w, r, &patch, op) {
		return
	}

	sess, err := h.wizard.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *handler) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Next(r.Context(), chi.URLParam(r, "id"))
	h.metrics.StepTransitions.WithLabelValues("next", metrics.Outcome(err)).Inc()
	if err != nil {
		h.respondServiceError(w, err, "server.handleNext")
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Previous(r.Context(), chi.URLParam(r, "id"))
	h.metrics.StepTransitions.WithLabelValues("previous", metrics.Outcome(err)).Inc()
	if err != nil {
		h.respondServiceError(w, err, "server.handlePrevious")
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Restart(r.Context(), chi.URLParam(r, "id"))
	h.metrics.StepTransitions.WithLabelValues("restart", metrics.Outcome(err)).Inc()
	if err != nil {
		h.respondServiceError(w, err, "server.handleRestart")
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *handler) handleSign(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSign"

	var req signRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	sess, stored, err := h.wizard.Sign(r.Context(), chi.URLParam(r, "id"), req.Signature)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.metrics.ProposalsSigned.Inc()

	name := storage.DocumentName(stored.Record.PDFReference)
	resp := signResponse{
		Session:           sess,
		ProposalID:        stored.ID,
		DocumentReference: stored.Record.PDFReference,
		DownloadName:      output.DownloadName(validation.NormalizeFullName(stored.Record.FullName), extensionFormat(name)),
	}
	resp.DocumentURL, resp.DocumentURLExpires, err = h.links.URL(name)
	if err != nil {
		// The proposal is stored; only the link is missing.
		h.logger.Error("failed to issue document link",
			zap.String("op", op),
			zap.String("document", name),
			zap.Error(err),
		)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleGetDocument serves a document to the holder of a valid download token.
func (h *handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetDocument"

	name := chi.URLParam(r, "name")
	if err := h.links.Verify(r.URL.Query().Get("token"), name); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	doc, err := h.store.GetDocument(r.Context(), name)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeDocument(w, doc, op)
}

func (h *handler) writeDocument(w http.ResponseWriter, doc storage.Document, op string) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		h.logger.Warn("failed to write document",
			zap.String("op", op),
			zap.String("document", doc.Name),
			zap.Error(err),
		)
	}
}

// extensionFormat recovers the document format from a stored file name.
func extensionFormat(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return constants.DocumentFormatText
	}
	switch ext := name[idx+1:]; ext {
	case "txt":
		return constants.DocumentFormatText
	default:
		return ext
	}
}
