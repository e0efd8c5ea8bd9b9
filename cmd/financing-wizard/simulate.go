package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/format"
	"github.com/iwvelando/financing-wizard/pkg/loans"
	"github.com/iwvelando/financing-wizard/pkg/mathutil"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Simulation output formats.
const (
	simulateOutputText = "text"
	simulateOutputJSON = "json"
	simulateOutputYAML = "yaml"
)

type simulateOptions struct {
	amount   string
	down     string
	term     int
	schedule bool
	output   string
}

type simulationInstallment struct {
	Number             int    `json:"number" yaml:"number"`
	Payment            string `json:"payment" yaml:"payment"`
	Interest           string `json:"interest" yaml:"interest"`
	Principal          string `json:"principal" yaml:"principal"`
	RemainingPrincipal string `json:"remainingPrincipal" yaml:"remainingPrincipal"`
}

type simulation struct {
	FinancedAmount string                  `json:"financedAmount" yaml:"financedAmount"`
	DownPayment    string                  `json:"downPayment" yaml:"downPayment"`
	PropertyValue  string                  `json:"propertyValue" yaml:"propertyValue"`
	InterestRate   string                  `json:"interestRate" yaml:"interestRate"`
	TermMonths     int                     `json:"termMonths" yaml:"termMonths"`
	MonthlyPayment string                  `json:"monthlyPayment" yaml:"monthlyPayment"`
	TotalAmount    string                  `json:"totalAmount" yaml:"totalAmount"`
	DownPaymentPct string                  `json:"downPaymentPercent" yaml:"downPaymentPercent"`
	TotalInterest  string                  `json:"totalInterest,omitempty" yaml:"totalInterest,omitempty"`
	Problems       []string                `json:"problems,omitempty" yaml:"problems,omitempty"`
	Schedule       []simulationInstallment `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

func newSimulateCommand(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compute the monthly installment and total for a financing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			rules, err := conf.BusinessRules()
			if err != nil {
				return err
			}
			result, err := simulate(rules, *opts, logger)
			if err != nil {
				return err
			}
			return writeSimulation(cmd.OutOrStdout(), result, opts.output)
		},
	}
	cmd.Flags().StringVar(&opts.amount, "amount", "", `financed amount, plain ("300000.00") or masked ("R$ 300.000,00")`)
	cmd.Flags().StringVar(&opts.down, "down", "0", "down payment, plain or masked")
	cmd.Flags().IntVar(&opts.term, "term", 360, "term in months")
	cmd.Flags().BoolVar(&opts.schedule, "schedule", false, "include the amortization schedule")
	cmd.Flags().StringVar(&opts.output, "output", simulateOutputText, "output format (text, json, yaml)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// parseAmount accepts either a plain decimal or a pt-BR masked amount.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, constants.CurrencySymbol) || strings.Contains(value, ",") {
		return format.ParseCurrencyInput(value), nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}

func simulate(rules proposal.Rules, opts simulateOptions, logger *zap.Logger) (simulation, error) {
	financed, err := parseAmount(opts.amount)
	if err != nil {
		return simulation{}, err
	}
	down, err := parseAmount(opts.down)
	if err != nil {
		return simulation{}, err
	}
	for _, err := range []error{
		validation.CheckAmount(financed),
		validation.CheckAmount(down),
		validation.CheckTerm(opts.term),
	} {
		if err != nil {
			return simulation{}, err
		}
	}

	record := proposal.NewRecord(rules)
	record.FinancedAmount = financed
	record.DownPayment = down
	record.TermMonths = opts.term
	record.Recompute()

	result := simulation{
		FinancedAmount: record.FinancedAmount.StringFixed(constants.CurrencyPlaces),
		DownPayment:    record.DownPayment.StringFixed(constants.CurrencyPlaces),
		PropertyValue:  record.PropertyValue().StringFixed(constants.CurrencyPlaces),
		InterestRate:   record.InterestRate.String(),
		TermMonths:     record.TermMonths,
		MonthlyPayment: record.MonthlyPayment.StringFixed(constants.CurrencyPlaces),
		TotalAmount:    record.TotalAmount.StringFixed(constants.CurrencyPlaces),
		DownPaymentPct: mathutil.CalculatePercentage(record.DownPayment, record.PropertyValue()).StringFixed(2),
	}
	for _, problem := range record.ValidateFinancial(rules) {
		result.Problems = append(result.Problems, problem.Error())
	}

	if opts.schedule {
		schedule := loans.NewAmortizationScheduleGenerator(logger).
			GenerateSchedule(record.FinancedAmount, record.InterestRate, record.TermMonths)
		if len(schedule) > 0 {
			result.TotalInterest = loans.TotalInterest(schedule).StringFixed(constants.CurrencyPlaces)
		}
		for _, inst := range schedule {
			result.Schedule = append(result.Schedule, simulationInstallment{
				Number:             inst.Number,
				Payment:            inst.Payment.StringFixed(constants.CurrencyPlaces),
				Interest:           inst.Interest.StringFixed(constants.CurrencyPlaces),
				Principal:          inst.Principal.StringFixed(constants.CurrencyPlaces),
				RemainingPrincipal: inst.RemainingPrincipal.StringFixed(constants.CurrencyPlaces),
			})
		}
	}
	return result, nil
}

func writeSimulation(w io.Writer, result simulation, outputFormat string) error {
	switch outputFormat {
	case simulateOutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case simulateOutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(result); err != nil {
			return err
		}
		return encoder.Close()
	case simulateOutputText, "":
		writeSimulationText(w, result)
		return nil
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

func writeSimulationText(w io.Writer, result simulation) {
	currency := func(value string) string {
		return format.Currency(decimal.RequireFromString(value))
	}

	fmt.Fprintf(w, "Valor Total do Imóvel: %s\n", currency(result.PropertyValue))
	fmt.Fprintf(w, "Valor de Entrada: %s (%s%%)\n", currency(result.DownPayment), strings.Replace(result.DownPaymentPct, ".", ",", 1))
	fmt.Fprintf(w, "Valor Financiado: %s\n", currency(result.FinancedAmount))
	rate := decimal.RequireFromString(result.InterestRate).Shift(2)
	fmt.Fprintf(w, "Taxa de Juros: %s%% ao ano\n", strings.Replace(rate.String(), ".", ",", 1))
	fmt.Fprintf(w, "Prazo: %d meses\n", result.TermMonths)
	fmt.Fprintf(w, "Valor da Parcela: %s\n", currency(result.MonthlyPayment))
	fmt.Fprintf(w, "Valor Total a Pagar: %s\n", currency(result.TotalAmount))

	if result.TotalInterest != "" {
		fmt.Fprintf(w, "Total de Juros: %s\n", currency(result.TotalInterest))
	}

	for _, problem := range result.Problems {
		fmt.Fprintf(w, "! %s\n", problem)
	}

	if len(result.Schedule) > 0 {
		fmt.Fprintln(w)
		numeric := func(value string) string {
			return format.NumericCurrency(decimal.RequireFromString(value))
		}
		fmt.Fprintf(w, "%5s %14s %14s %14s %16s\n", "Nº", "Parcela", "Juros", "Amortização", "Saldo Devedor")
		for _, inst := range result.Schedule {
			fmt.Fprintf(w, "%5d %14s %14s %14s %16s\n",
				inst.Number,
				numeric(inst.Payment),
				numeric(inst.Interest),
				numeric(inst.Principal),
				numeric(inst.RemainingPrincipal),
			)
		}
	}
}
