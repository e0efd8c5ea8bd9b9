package loans

import (
	"testing"
	"time"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeAmortization(t *testing.T) {
	tests := []struct {
		name            string
		principal       string
		annualRate      string
		termMonths      int
		expectedMonthly string
		expectedTotal   string
	}{
		{
			name:            "Standard 30-year financing",
			principal:       "300000",
			annualRate:      "0.12",
			termMonths:      360,
			expectedMonthly: "3085.84",
			expectedTotal:   "1110902.40",
		},
		{
			name:            "10-year financing",
			principal:       "100000",
			annualRate:      "0.12",
			termMonths:      120,
			expectedMonthly: "1434.71",
			expectedTotal:   "172165.20",
		},
		{
			name:            "Short loan",
			principal:       "1000",
			annualRate:      "0.12",
			termMonths:      12,
			expectedMonthly: "88.85",
			expectedTotal:   "1066.20",
		},
		{"120 months", "250000", "0.12", 120, "3586.77", "430412.40"},
		{"180 months", "250000", "0.12", 180, "3000.42", "540075.60"},
		{"240 months", "250000", "0.12", 240, "2752.72", "660652.80"},
		{"300 months", "250000", "0.12", 300, "2633.06", "789918.00"},
		{"360 months", "250000", "0.12", 360, "2571.53", "925750.80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := ComputeAmortization(dec(tt.principal), dec(tt.annualRate), tt.termMonths)
			if !quote.MonthlyPayment.Equal(dec(tt.expectedMonthly)) {
				t.Errorf("MonthlyPayment = %s, expected %s", quote.MonthlyPayment, tt.expectedMonthly)
			}
			if !quote.TotalAmount.Equal(dec(tt.expectedTotal)) {
				t.Errorf("TotalAmount = %s, expected %s", quote.TotalAmount, tt.expectedTotal)
			}
		})
	}
}

func TestComputeAmortizationDegenerateInputs(t *testing.T) {
	tests := []struct {
		name       string
		principal  string
		annualRate string
		termMonths int
	}{
		{"Zero principal", "0", "0.12", 360},
		{"Negative principal", "-1000", "0.12", 360},
		{"Zero rate", "300000", "0", 360},
		{"Negative rate", "300000", "-0.12", 360},
		{"Zero term", "300000", "0.12", 0},
		{"Negative term", "300000", "0.12", -12},
		{"Everything zero", "0", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := ComputeAmortization(dec(tt.principal), dec(tt.annualRate), tt.termMonths)
			if !quote.IsZero() {
				t.Errorf("expected zero quote, got %s / %s", quote.MonthlyPayment, quote.TotalAmount)
			}
		})
	}
}

func TestComputeAmortizationHugeTerms(t *testing.T) {
	tests := []struct {
		name          string
		termMonths    int
		expectedTotal string
	}{
		{"Ten thousand months", 10000, "30000000.00"},
		{"One billion months", 1000000000, "3000000000000.00"},
		{"Two to the fortieth months", 1 << 40, "3298534883328000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan Quote, 1)
			go func() {
				done <- ComputeAmortization(dec("300000"), dec("0.12"), tt.termMonths)
			}()

			select {
			case quote := <-done:
				// The payment converges to the monthly interest on the principal.
				if !quote.MonthlyPayment.Equal(dec("3000")) {
					t.Errorf("MonthlyPayment = %s, expected 3000.00", quote.MonthlyPayment)
				}
				if !quote.TotalAmount.Equal(dec(tt.expectedTotal)) {
					t.Errorf("TotalAmount = %s, expected %s", quote.TotalAmount, tt.expectedTotal)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("ComputeAmortization did not return for %d months", tt.termMonths)
			}
		})
	}
}

func TestComputeAmortizationOutOfRangeInputs(t *testing.T) {
	tests := []struct {
		name       string
		principal  string
		annualRate string
	}{
		{"Huge exponent principal", "1e200000000", "0.12"},
		{"Principal above maximum", "1000000000000001", "0.12"},
		{"Principal with too many decimals", "1e-200000000", "0.12"},
		{"Huge exponent rate", "300000", "1e200000000"},
		{"Rate above maximum", "300000", "10.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan Quote, 1)
			go func() {
				done <- ComputeAmortization(dec(tt.principal), dec(tt.annualRate), 360)
			}()

			select {
			case quote := <-done:
				if !quote.IsZero() {
					t.Errorf("expected zero quote, got %s / %s", quote.MonthlyPayment, quote.TotalAmount)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("ComputeAmortization did not return")
			}
		})
	}

	quote := ComputeAmortization(dec("1000000000000000"), dec("0.12"), 360)
	if quote.IsZero() {
		t.Error("expected a quote at the maximum principal")
	}
}

func TestComputeAmortizationTotalUsesRoundedPayment(t *testing.T) {
	for _, term := range []int{120, 180, 240, 300, 360} {
		quote := ComputeAmortization(dec("123456.78"), dec("0.12"), term)
		expected := quote.MonthlyPayment.Mul(decimal.NewFromInt(int64(term))).Round(2)
		if !quote.TotalAmount.Equal(expected) {
			t.Errorf("term %d: TotalAmount = %s, expected %s", term, quote.TotalAmount, expected)
		}
		if quote.MonthlyPayment.Exponent() < -2 {
			t.Errorf("term %d: MonthlyPayment %s has more than two decimals", term, quote.MonthlyPayment)
		}
	}
}

func TestComputeAmortizationIsDeterministic(t *testing.T) {
	first := ComputeAmortization(dec("287654.32"), dec("0.12"), 300)
	for i := 0; i < 5; i++ {
		again := ComputeAmortization(dec("287654.32"), dec("0.12"), 300)
		if !again.MonthlyPayment.Equal(first.MonthlyPayment) || !again.TotalAmount.Equal(first.TotalAmount) {
			t.Fatalf("non-reproducible result: %v vs %v", again, first)
		}
	}
}

func TestMonthlyRate(t *testing.T) {
	if got := MonthlyRate(dec("0.12")); !got.Equal(dec("0.01")) {
		t.Errorf("MonthlyRate(0.12) = %s, expected 0.01", got)
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name     string
		balance  string
		rate     string
		expected string
	}{
		{"Full balance", "300000", "0.12", "3000"},
		{"Rounded interest", "3047.62", "0.12", "30.48"},
		{"Zero balance", "0", "0.12", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateInterestPayment(dec(tt.balance), dec(tt.rate))
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("CalculateInterestPayment(%s, %s) = %s, expected %s", tt.balance, tt.rate, got, tt.expected)
			}
		})
	}
}

func TestGenerateSchedule(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(zap.NewNop())

	tests := []struct {
		name         string
		principal    string
		termMonths   int
		firstPayment string
		lastPayment  string
	}{
		{"30-year financing", "300000", 360, "3085.84", "3078.55"},
		{"10-year financing", "100000", 120, "1434.71", "1434.57"},
		{"One year loan", "1000", 12, "88.85", "88.84"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule := generator.GenerateSchedule(dec(tt.principal), dec("0.12"), tt.termMonths)
			if len(schedule) != tt.termMonths {
				t.Fatalf("schedule length = %d, expected %d", len(schedule), tt.termMonths)
			}

			if !schedule[0].Payment.Equal(dec(tt.firstPayment)) {
				t.Errorf("first payment = %s, expected %s", schedule[0].Payment, tt.firstPayment)
			}

			last := schedule[len(schedule)-1]
			if !last.Payment.Equal(dec(tt.lastPayment)) {
				t.Errorf("last payment = %s, expected %s", last.Payment, tt.lastPayment)
			}
			if !last.RemainingPrincipal.IsZero() {
				t.Errorf("last remaining principal = %s, expected 0", last.RemainingPrincipal)
			}

			paidPrincipal := decimal.Zero
			for i, installment := range schedule {
				if installment.Number != i+1 {
					t.Fatalf("installment %d numbered %d", i+1, installment.Number)
				}
				if !installment.Payment.Equal(installment.Principal.Add(installment.Interest)) {
					t.Errorf("installment %d: payment %s != principal %s + interest %s",
						installment.Number, installment.Payment, installment.Principal, installment.Interest)
				}
				paidPrincipal = paidPrincipal.Add(installment.Principal)
			}
			if !paidPrincipal.Equal(dec(tt.principal)) {
				t.Errorf("sum of principal = %s, expected %s", paidPrincipal, tt.principal)
			}
		})
	}
}

func TestGenerateScheduleFirstInstallment(t *testing.T) {
	schedule := NewAmortizationScheduleGenerator(nil).GenerateSchedule(dec("300000"), dec("0.12"), 360)
	first := schedule[0]
	if !first.Interest.Equal(dec("3000")) {
		t.Errorf("first interest = %s, expected 3000", first.Interest)
	}
	if !first.Principal.Equal(dec("85.84")) {
		t.Errorf("first principal = %s, expected 85.84", first.Principal)
	}
	if !first.RemainingPrincipal.Equal(dec("299914.16")) {
		t.Errorf("first remaining = %s, expected 299914.16", first.RemainingPrincipal)
	}
}

func TestGenerateScheduleDegenerate(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(nil)
	if schedule := generator.GenerateSchedule(decimal.Zero, dec("0.12"), 360); schedule != nil {
		t.Errorf("expected nil schedule for zero principal, got %d installments", len(schedule))
	}
	if schedule := generator.GenerateSchedule(dec("1000"), dec("0.12"), 0); schedule != nil {
		t.Errorf("expected nil schedule for zero term, got %d installments", len(schedule))
	}
}

func TestTotalInterest(t *testing.T) {
	schedule := NewAmortizationScheduleGenerator(nil).GenerateSchedule(dec("1000"), dec("0.12"), 12)
	paid := decimal.Zero
	for _, installment := range schedule {
		paid = paid.Add(installment.Payment)
	}
	if got := TotalInterest(schedule); !got.Equal(paid.Sub(dec("1000"))) {
		t.Errorf("TotalInterest = %s, expected %s", got, paid.Sub(dec("1000")))
	}
}

func TestGenerateScheduleTermBounds(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(nil)

	if schedule := generator.GenerateSchedule(dec("300000"), dec("0.12"), constants.MaxTermMonths+1); schedule != nil {
		t.Errorf("expected no schedule above the maximum term, got %d installments", len(schedule))
	}
	if schedule := generator.GenerateSchedule(dec("300000"), dec("0.12"), 1<<40); schedule != nil {
		t.Errorf("expected no schedule for a huge term, got %d installments", len(schedule))
	}

	schedule := generator.GenerateSchedule(dec("300000"), dec("0.12"), constants.MaxTermMonths)
	if len(schedule) == 0 || len(schedule) > constants.MaxTermMonths {
		t.Fatalf("schedule length = %d, expected between 1 and %d", len(schedule), constants.MaxTermMonths)
	}
	if !schedule[len(schedule)-1].RemainingPrincipal.IsZero() {
		t.Errorf("last remaining principal = %s, expected 0", schedule[len(schedule)-1].RemainingPrincipal)
	}
}
