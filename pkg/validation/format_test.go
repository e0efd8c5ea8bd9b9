package validation

import (
	"strings"
	"testing"
)

func TestValidateDocumentFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{name: "Valid text format", format: "text", expectErr: false},
		{name: "Valid csv format", format: "csv", expectErr: false},
		{name: "Valid yaml format", format: "yaml", expectErr: false},
		{name: "PDF not supported", format: "pdf", expectErr: true},
		{name: "Empty format", format: "", expectErr: true},
		{name: "Case sensitive", format: "TEXT", expectErr: true},
		{name: "Leading/trailing spaces", format: " csv ", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateDocumentFormat(%s) expected error but got none", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateDocumentFormat(%s) unexpected error = %v", tt.format, err)
			}
		})
	}
}

func TestValidateDocumentFormatErrorMessage(t *testing.T) {
	err := ValidateDocumentFormat("pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "got pdf") {
		t.Errorf("error message %q does not mention the rejected format", err.Error())
	}
}
