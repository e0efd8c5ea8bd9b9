package validation

import (
	"fmt"

	"github.com/iwvelando/financing-wizard/pkg/constants"
)

// ValidateDocumentFormat checks if the document format is one of the supported formats.
func ValidateDocumentFormat(format string) error {
	switch format {
	case constants.DocumentFormatText, constants.DocumentFormatCSV, constants.DocumentFormatYAML:
		return nil
	}
	return fmt.Errorf("expected document format of %s, %s or %s, got %s",
		constants.DocumentFormatText, constants.DocumentFormatCSV, constants.DocumentFormatYAML, format)
}
