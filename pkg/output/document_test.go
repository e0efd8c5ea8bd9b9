package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/financing-wizard/pkg/loans"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const testSignature = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testDocument(withSchedule bool) Document {
	doc := Document{
		FullName:       "João da Silva",
		CPF:            "529.982.247-25",
		Email:          "joao@example.com",
		Phone:          "(11) 99999-9999",
		PropertyValue:  dec("360000"),
		DownPayment:    dec("60000"),
		FinancedAmount: dec("300000"),
		InterestRate:   dec("0.12"),
		TermMonths:     360,
		MonthlyPayment: dec("3085.84"),
		TotalAmount:    dec("1110902.40"),
		SignatureData:  testSignature,
		SignedAt:       time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
	}
	if withSchedule {
		doc.FinancedAmount = dec("1000")
		doc.TermMonths = 12
		doc.Schedule = loans.NewAmortizationScheduleGenerator(nil).GenerateSchedule(dec("1000"), dec("0.12"), 12)
	}
	return doc
}

func TestRenderText(t *testing.T) {
	data, contentType, err := Render("text", testDocument(false))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if contentType != "text/plain; charset=utf-8" {
		t.Errorf("content type = %s", contentType)
	}

	text := string(data)
	expected := []string{
		"PROPOSTA DE FINANCIAMENTO IMOBILIÁRIO",
		"DADOS DO PROPONENTE",
		"Nome: João da Silva",
		"CPF: 529.982.247-25",
		"E-mail: joao@example.com",
		"Telefone: (11) 99999-9999",
		"DADOS FINANCEIROS",
		"Valor Total do Imóvel: R$ 360.000,00",
		"Valor de Entrada: R$ 60.000,00",
		"Valor Financiado: R$ 300.000,00",
		"Taxa de Juros: 12% ao ano",
		"Prazo: 360 meses",
		"Valor da Parcela: R$ 3.085,84",
		"VALOR TOTAL A PAGAR: R$ 1.110.902,40",
		"TERMOS E CONDIÇÕES",
		"A assinatura digital equivale à assinatura física",
		"Data: 15/03/2025",
		"Assinatura: (Assinatura digital aplicada, sha256 " + Fingerprint(testSignature) + ")",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("text document missing %q", want)
		}
	}
	if strings.Contains(text, "TABELA DE AMORTIZAÇÃO") {
		t.Error("text document should not include a schedule when none is provided")
	}
}

func TestRenderTextSchedule(t *testing.T) {
	data, _, err := Render("text", testDocument(true))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "TABELA DE AMORTIZAÇÃO") {
		t.Fatal("missing schedule section")
	}
	if !strings.Contains(text, "15/04/2025") {
		t.Error("missing first due date")
	}
	if !strings.Contains(text, "15/03/2026") {
		t.Error("missing last due date")
	}
	if !strings.Contains(text, "R$ 88,84") {
		t.Error("missing settling installment")
	}
}

func TestRenderTextWithoutSignature(t *testing.T) {
	doc := testDocument(false)
	doc.SignatureData = ""
	data, _, err := Render("text", doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(string(data), "Assinatura:") {
		t.Error("unsigned document should not print a signature line")
	}
}

func TestRenderCSV(t *testing.T) {
	data, contentType, err := Render("csv", testDocument(true))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if contentType != "text/csv; charset=utf-8" {
		t.Errorf("content type = %s", contentType)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}

	values := make(map[string]string)
	for _, record := range records[:14] {
		values[record[0]] = record[1]
	}
	if values["full_name"] != "João da Silva" {
		t.Errorf("full_name = %q", values["full_name"])
	}
	if values["total_amount"] != "1110902.40" {
		t.Errorf("total_amount = %q", values["total_amount"])
	}
	if values["term_months"] != "12" {
		t.Errorf("term_months = %q", values["term_months"])
	}

	// 14 proposal rows, one schedule header, 12 installments.
	if len(records) != 27 {
		t.Fatalf("expected 27 csv records, got %d", len(records))
	}
	if records[14][0] != "installment" {
		t.Errorf("expected schedule header, got %v", records[14])
	}
	last := records[len(records)-1]
	if last[0] != "12" || last[5] != "0.00" {
		t.Errorf("unexpected last installment row %v", last)
	}
}

func TestRenderYAML(t *testing.T) {
	data, contentType, err := Render("yaml", testDocument(true))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if contentType != "application/yaml" {
		t.Errorf("content type = %s", contentType)
	}

	var parsed yamlDocument
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to parse yaml: %v", err)
	}
	if parsed.Title != documentTitle {
		t.Errorf("title = %q", parsed.Title)
	}
	if parsed.Financing.MonthlyPayment != "3085.84" {
		t.Errorf("monthlyPayment = %q", parsed.Financing.MonthlyPayment)
	}
	if parsed.Applicant.CPF != "529.982.247-25" {
		t.Errorf("cpf = %q", parsed.Applicant.CPF)
	}
	if len(parsed.Schedule) != 12 || parsed.Schedule[0].DueDate != "15/04/2025" {
		t.Errorf("unexpected schedule %+v", parsed.Schedule)
	}
	if len(parsed.Terms) != len(Terms) {
		t.Errorf("expected %d terms, got %d", len(Terms), len(parsed.Terms))
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	if _, _, err := Render("pdf", testDocument(false)); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFileNames(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Text file name", FileName("text", at, "7f3c"), "financing_proposal_1700000000123_7f3c.txt"},
		{"CSV file name", FileName("csv", at, "7f3c"), "financing_proposal_1700000000123_7f3c.csv"},
		{"Download name", DownloadName("João  da Silva", "text"), "Proposta_Financiamento_João_da_Silva.txt"},
		{"YAML download name", DownloadName(" Maria Souza ", "yaml"), "Proposta_Financiamento_Maria_Souza.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, expected %q", tt.got, tt.expected)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("") != "" {
		t.Error("empty signature should have no fingerprint")
	}
	first := Fingerprint(testSignature)
	if len(first) != 16 {
		t.Errorf("expected 16 hex characters, got %q", first)
	}
	if first != Fingerprint(testSignature) {
		t.Error("fingerprint should be deterministic")
	}
	if first == Fingerprint(testSignature+"A") {
		t.Error("different signatures should not share a fingerprint")
	}
}

func TestRenderer(t *testing.T) {
	if _, err := NewRenderer("docx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}

	renderer, err := NewRenderer("csv")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	if renderer.Format() != "csv" {
		t.Errorf("Format() = %s", renderer.Format())
	}

	rendered, err := renderer.Render(testDocument(false))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if rendered.Format != "csv" || rendered.ContentType != "text/csv; charset=utf-8" {
		t.Errorf("unexpected rendered metadata %s %s", rendered.Format, rendered.ContentType)
	}
	if !strings.HasPrefix(string(rendered.Data), "field,value") {
		t.Errorf("unexpected csv content %q", rendered.Data[:20])
	}
}
