package domain

import "testing"

var heicHeader = []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")

func TestNewPhotoSniffsKnownFormats(t *testing.T) {
	photo, err := NewPhoto("me.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	if err != nil {
		t.Fatalf("NewPhoto() error = %v", err)
	}
	if photo.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", photo.ContentType)
	}
}

func TestNewPhotoFallsBackForUnsniffableImages(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		declaredType string
		want         string
	}{
		{name: "declared type", filename: "upload", declaredType: "image/heic", want: "image/heic"},
		{name: "declared type with params", filename: "upload", declaredType: "image/heif; q=1", want: "image/heif"},
		{name: "extension", filename: "IMG_0001.HEIC", declaredType: "application/octet-stream", want: "image/heic"},
		{name: "extension without declared type", filename: "IMG_0002.heic", want: "image/heic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photo, err := NewPhotoWithType(tt.filename, tt.declaredType, heicHeader)
			if err != nil {
				t.Fatalf("NewPhotoWithType() error = %v", err)
			}
			if photo.ContentType != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, photo.ContentType)
			}
		})
	}
}

func TestNewPhotoRejectsNonImages(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		declaredType string
		data         []byte
	}{
		{name: "unknown binary", filename: "blob.bin", data: heicHeader},
		{name: "text ignores declared type", filename: "notes.heic", declaredType: "image/heic", data: []byte("just some text")},
		{name: "empty", filename: "me.png", data: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPhotoWithType(tt.filename, tt.declaredType, tt.data)
			if !IsKind(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewPhotoNamesNamelessUploads(t *testing.T) {
	photo, err := NewPhotoWithType("", "image/heic", heicHeader)
	if err != nil {
		t.Fatalf("NewPhotoWithType() error = %v", err)
	}
	if photo.Filename != "photo.heic" {
		t.Fatalf("expected photo.heic, got %q", photo.Filename)
	}
}
