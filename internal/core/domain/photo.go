package domain

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Formats the content sniffer cannot recognise. Checked before the system
// mime table, which rarely knows about HEIF.
var extensionTypes = map[string]string{
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// Photo is an image selected by the user. The bytes are forwarded to the
// backend untouched.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

func NewPhoto(filename string, data []byte) (Photo, error) {
	return NewPhotoWithType(filename, "", data)
}

// NewPhotoWithType is NewPhoto with a content type declared by the sender.
// The declared type and then the file extension are only consulted when
// sniffing the bytes yields nothing more specific than octet-stream.
func NewPhotoWithType(filename, declaredType string, data []byte) (Photo, error) {
	if len(data) == 0 {
		return Photo{}, WrapError(ErrInvalidInput, "photo", fmt.Errorf("image data cannot be empty"))
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}

	contentType := http.DetectContentType(data)
	if contentType == "application/octet-stream" {
		contentType = fallbackImageType(name, declaredType)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return Photo{}, WrapError(ErrInvalidInput, "photo", fmt.Errorf("unsupported content type %q", contentType))
	}
	if name == "" {
		name = "photo" + extensionFor(contentType)
	}
	return Photo{
		Filename:    name,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (p Photo) IsZero() bool {
	return len(p.Data) == 0
}

func fallbackImageType(name, declaredType string) string {
	if mediaType, _, err := mime.ParseMediaType(declaredType); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	ext := strings.ToLower(filepath.Ext(name))
	if contentType, ok := extensionTypes[ext]; ok {
		return contentType
	}
	if mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	return "application/octet-stream"
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/heic":
		return ".heic"
	case "image/heif":
		return ".heif"
	case "image/avif":
		return ".avif"
	default:
		return ".jpg"
	}
}
