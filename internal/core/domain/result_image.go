package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ResultImage is a composite image decoded from an inline result reference.
type ResultImage struct {
	ContentType string
	Data        []byte
}

// DecodeResultImage decodes a "data:<type>;base64,<payload>" reference.
// Plain server paths are rejected with ErrInvalidInput.
func DecodeResultImage(ref string) (ResultImage, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, "data:") {
		return ResultImage{}, WrapError(ErrInvalidInput, "decode result image", fmt.Errorf("reference is not an inline data url"))
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return ResultImage{}, WrapError(ErrInvalidInput, "decode result image", fmt.Errorf("data url has no payload"))
	}
	contentType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return ResultImage{}, WrapError(ErrInvalidInput, "decode result image", fmt.Errorf("unsupported data url encoding %q", encoding))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ResultImage{}, WrapError(ErrInvalidInput, "decode result image", err)
	}
	return ResultImage{ContentType: contentType, Data: data}, nil
}

func (r ResultImage) Extension() string {
	return extensionFor(r.ContentType)
}
