package wizard

import (
	"bytes"
	"encoding/base64"
	"strings"
)

const pngDataURLPrefix = "data:image/png;base64,"

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// ValidateSignature checks that the captured signature is a base64 PNG data URL.
func ValidateSignature(dataURL string) error {
	if strings.TrimSpace(dataURL) == "" {
		return ErrSignatureRequired
	}
	if !strings.HasPrefix(dataURL, pngDataURLPrefix) {
		return ErrInvalidSignature
	}

	payload := strings.TrimPrefix(dataURL, pngDataURLPrefix)
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidSignature
	}
	if !bytes.HasPrefix(image, pngMagic) {
		return ErrInvalidSignature
	}
	return nil
}
