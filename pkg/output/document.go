// Package output renders signed financing proposals into downloadable documents.
package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/datetime"
	"github.com/iwvelando/financing-wizard/pkg/format"
	"github.com/iwvelando/financing-wizard/pkg/loans"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const (
	documentTitle   = "PROPOSTA DE FINANCIAMENTO IMOBILIÁRIO"
	documentBrand   = "Simulador de Financiamento Imobiliário"
	documentFooter  = "Documento gerado automaticamente pelo Simulador de Financiamento Imobiliário"
	downloadPrefix  = "Proposta_Financiamento_"
	fileNamePrefix  = "financing_proposal_"
	fingerprintSize = 16
)

// Terms lists the conditions printed on every proposal.
var Terms = []string{
	"Esta proposta de financiamento está sujeita à análise de crédito e aprovação pela instituição financeira.",
	"As condições apresentadas podem sofrer alterações mediante análise documental.",
	"O proponente declara estar ciente das condições apresentadas e concorda com os termos desta proposta.",
	"A assinatura digital equivale à assinatura física para todos os efeitos legais.",
}

// Document is everything printed on a proposal.
type Document struct {
	FullName       string
	CPF            string
	Email          string
	Phone          string
	PropertyValue  decimal.Decimal
	DownPayment    decimal.Decimal
	FinancedAmount decimal.Decimal
	InterestRate   decimal.Decimal
	TermMonths     int
	MonthlyPayment decimal.Decimal
	TotalAmount    decimal.Decimal
	SignatureData  string
	SignedAt       time.Time
	Schedule       []loans.Installment
}

// Render produces the document in the requested format along with its
// content type.
func Render(documentFormat string, doc Document) ([]byte, string, error) {
	if err := validation.ValidateDocumentFormat(documentFormat); err != nil {
		return nil, "", err
	}

	switch documentFormat {
	case constants.DocumentFormatCSV:
		data, err := renderCSV(doc)
		return data, "text/csv; charset=utf-8", err
	case constants.DocumentFormatYAML:
		data, err := renderYAML(doc)
		return data, "application/yaml", err
	default:
		return renderText(doc), "text/plain; charset=utf-8", nil
	}
}

// Extension returns the file extension used for a document format.
func Extension(documentFormat string) string {
	if documentFormat == constants.DocumentFormatText {
		return "txt"
	}
	return documentFormat
}

// FileName is the storage name of the document generated at the given time
// for the proposal with the given id.
func FileName(documentFormat string, at time.Time, proposalID string) string {
	return fileNamePrefix + strconv.FormatInt(at.UnixMilli(), 10) + "_" + proposalID + "." + Extension(documentFormat)
}

// DownloadName is the name offered to the applicant when saving the document.
func DownloadName(fullName, documentFormat string) string {
	return downloadPrefix + strings.Join(strings.Fields(fullName), "_") + "." + Extension(documentFormat)
}

// Fingerprint returns a short SHA-256 digest identifying the signature image.
// An empty signature has no fingerprint.
func Fingerprint(signatureData string) string {
	if signatureData == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(signatureData))
	return hex.EncodeToString(sum[:])[:fingerprintSize]
}

func ratePercent(rate decimal.Decimal) string {
	return strings.Replace(rate.Mul(decimal.NewFromInt(100)).String(), ".", ",", 1) + "%"
}

func renderText(doc Document) []byte {
	var buf bytes.Buffer
	p := message.NewPrinter(language.BrazilianPortuguese)
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(&buf, documentTitle)
	fmt.Fprintln(&buf, documentBrand)
	fmt.Fprintln(&buf, rule)
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "DADOS DO PROPONENTE")
	fmt.Fprintf(&buf, "Nome: %s\n", doc.FullName)
	fmt.Fprintf(&buf, "CPF: %s\n", doc.CPF)
	fmt.Fprintf(&buf, "E-mail: %s\n", doc.Email)
	fmt.Fprintf(&buf, "Telefone: %s\n", doc.Phone)
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "DADOS FINANCEIROS")
	fmt.Fprintf(&buf, "Valor Total do Imóvel: %s\n", format.Currency(doc.PropertyValue))
	fmt.Fprintf(&buf, "Valor de Entrada: %s\n", format.Currency(doc.DownPayment))
	fmt.Fprintf(&buf, "Valor Financiado: %s\n", format.Currency(doc.FinancedAmount))
	fmt.Fprintf(&buf, "Taxa de Juros: %s ao ano\n", ratePercent(doc.InterestRate))
	_, _ = p.Fprintf(&buf, "Prazo: %d meses\n", doc.TermMonths)
	fmt.Fprintf(&buf, "Valor da Parcela: %s\n", format.Currency(doc.MonthlyPayment))
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "VALOR TOTAL A PAGAR: %s\n", format.Currency(doc.TotalAmount))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "TERMOS E CONDIÇÕES")
	for _, term := range Terms {
		fmt.Fprintf(&buf, "- %s\n", term)
	}
	fmt.Fprintln(&buf)

	fmt.Fprintf(&buf, "Data: %s\n", datetime.FormatDate(doc.SignedAt))
	if fingerprint := Fingerprint(doc.SignatureData); fingerprint != "" {
		fmt.Fprintf(&buf, "Assinatura: (Assinatura digital aplicada, sha256 %s)\n", fingerprint)
	}

	if len(doc.Schedule) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "TABELA DE AMORTIZAÇÃO")
		_, _ = p.Fprintf(&buf, "%5s | %-10s | %16s | %16s | %16s | %18s\n",
			"Nº", "Vencimento", "Parcela", "Juros", "Amortização", "Saldo Devedor")
		for _, inst := range doc.Schedule {
			_, _ = p.Fprintf(&buf, "%5d | %-10s | %16s | %16s | %16s | %18s\n",
				inst.Number,
				datetime.FormatDate(datetime.DueDate(doc.SignedAt, inst.Number)),
				format.Currency(inst.Payment),
				format.Currency(inst.Interest),
				format.Currency(inst.Principal),
				format.Currency(inst.RemainingPrincipal))
		}
	}

	fmt.Fprintln(&buf, rule)
	fmt.Fprintln(&buf, documentFooter)
	return buf.Bytes()
}

func money(value decimal.Decimal) string {
	return value.StringFixed(constants.CurrencyPlaces)
}

func renderCSV(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"field", "value"},
		{"full_name", doc.FullName},
		{"cpf", doc.CPF},
		{"email", doc.Email},
		{"phone", doc.Phone},
		{"property_value", money(doc.PropertyValue)},
		{"down_payment", money(doc.DownPayment)},
		{"financed_amount", money(doc.FinancedAmount)},
		{"interest_rate", doc.InterestRate.String()},
		{"term_months", strconv.Itoa(doc.TermMonths)},
		{"monthly_payment", money(doc.MonthlyPayment)},
		{"total_amount", money(doc.TotalAmount)},
		{"signed_at", datetime.FormatDate(doc.SignedAt)},
		{"signature_sha256", Fingerprint(doc.SignatureData)},
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write proposal rows: %w", err)
	}

	if len(doc.Schedule) > 0 {
		if err := w.Write([]string{"installment", "due_date", "payment", "interest", "principal", "remaining_principal"}); err != nil {
			return nil, fmt.Errorf("failed to write schedule header: %w", err)
		}
		for _, inst := range doc.Schedule {
			row := []string{
				strconv.Itoa(inst.Number),
				datetime.FormatDate(datetime.DueDate(doc.SignedAt, inst.Number)),
				money(inst.Payment),
				money(inst.Interest),
				money(inst.Principal),
				money(inst.RemainingPrincipal),
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write installment %d: %w", inst.Number, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

type yamlApplicant struct {
	FullName string `yaml:"fullName"`
	CPF      string `yaml:"cpf"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
}

type yamlFinancing struct {
	PropertyValue  string `yaml:"propertyValue"`
	DownPayment    string `yaml:"downPayment"`
	FinancedAmount string `yaml:"financedAmount"`
	InterestRate   string `yaml:"interestRate"`
	TermMonths     int    `yaml:"termMonths"`
	MonthlyPayment string `yaml:"monthlyPayment"`
	TotalAmount    string `yaml:"totalAmount"`
}

type yamlInstallment struct {
	Number             int    `yaml:"number"`
	DueDate            string `yaml:"dueDate"`
	Payment            string `yaml:"payment"`
	Interest           string `yaml:"interest"`
	Principal          string `yaml:"principal"`
	RemainingPrincipal string `yaml:"remainingPrincipal"`
}

type yamlDocument struct {
	Title           string            `yaml:"title"`
	Applicant       yamlApplicant     `yaml:"applicant"`
	Financing       yamlFinancing     `yaml:"financing"`
	Terms           []string          `yaml:"terms"`
	Date            string            `yaml:"date"`
	SignatureSHA256 string            `yaml:"signatureSha256,omitempty"`
	Schedule        []yamlInstallment `yaml:"schedule,omitempty"`
}

func renderYAML(doc Document) ([]byte, error) {
	out := yamlDocument{
		Title: documentTitle,
		Applicant: yamlApplicant{
			FullName: doc.FullName,
			CPF:      doc.CPF,
			Email:    doc.Email,
			Phone:    doc.Phone,
		},
		Financing: yamlFinancing{
			PropertyValue:  money(doc.PropertyValue),
			DownPayment:    money(doc.DownPayment),
			FinancedAmount: money(doc.FinancedAmount),
			InterestRate:   doc.InterestRate.String(),
			TermMonths:     doc.TermMonths,
			MonthlyPayment: money(doc.MonthlyPayment),
			TotalAmount:    money(doc.TotalAmount),
		},
		Terms:           Terms,
		Date:            datetime.FormatDate(doc.SignedAt),
		SignatureSHA256: Fingerprint(doc.SignatureData),
	}
	for _, inst := range doc.Schedule {
		out.Schedule = append(out.Schedule, yamlInstallment{
			Number:             inst.Number,
			DueDate:            datetime.FormatDate(datetime.DueDate(doc.SignedAt, inst.Number)),
			Payment:            money(inst.Payment),
			Interest:           money(inst.Interest),
			Principal:          money(inst.Principal),
			RemainingPrincipal: money(inst.RemainingPrincipal),
		})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proposal yaml: %w", err)
	}
	return data, nil
}
