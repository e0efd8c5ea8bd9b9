package main

import (
	"errors"
	"fmt"

	"github.com/iwvelando/financing-wizard/pkg/format"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"github.com/spf13/cobra"
)

var errInvalidValue = errors.New("invalid value")

type fieldCheck struct {
	use   string
	short string
	valid func(string) bool
	mask  func(string) string
}

var fieldChecks = []fieldCheck{
	{use: "cpf", short: "Validate a CPF", valid: validation.IsValidCPF, mask: format.MaskCPF},
	{use: "phone", short: "Validate a Brazilian phone number", valid: validation.IsValidBrazilianPhone, mask: format.MaskPhone},
	{use: "email", short: "Validate an e-mail address", valid: validation.IsValidEmail},
	{use: "name", short: "Validate a full name", valid: validation.IsValidFullName, mask: validation.NormalizeFullName},
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate applicant fields",
	}
	for _, check := range fieldChecks {
		cmd.AddCommand(newFieldCheckCommand(check))
	}
	return cmd
}

func newFieldCheckCommand(check fieldCheck) *cobra.Command {
	return &cobra.Command{
		Use:   check.use + " VALUE",
		Short: check.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := args[0]
			display := value
			if check.mask != nil {
				display = check.mask(value)
			}

			if !check.valid(value) {
				fmt.Fprintf(cmd.OutOrStdout(), "invalid %s: %s\n", check.use, display)
				return fmt.Errorf("%w: %s", errInvalidValue, check.use)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid %s: %s\n", check.use, display)
			return nil
		},
	}
}
