package output

import (
	"github.com/iwvelando/financing-wizard/pkg/validation"
)

// Rendered is a document ready to be stored.
type Rendered struct {
	Format      string
	ContentType string
	Data        []byte
}

// Renderer renders documents in a fixed format.
type Renderer struct {
	format string
}

// NewRenderer validates the format once so rendering cannot fail on it later.
func NewRenderer(documentFormat string) (*Renderer, error) {
	if err := validation.ValidateDocumentFormat(documentFormat); err != nil {
		return nil, err
	}
	return &Renderer{format: documentFormat}, nil
}

// Format returns the document format this renderer produces.
func (r *Renderer) Format() string {
	return r.format
}

// Render produces the document.
func (r *Renderer) Render(doc Document) (Rendered, error) {
	data, contentType, err := Render(r.format, doc)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Format: r.format, ContentType: contentType, Data: data}, nil
}
