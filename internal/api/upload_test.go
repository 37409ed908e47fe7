package api

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadImageUploadAcceptsPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	upload, err := LoadImageUpload(path)
	if err != nil {
		t.Fatalf("LoadImageUpload returned error: %v", err)
	}
	if upload.FileName != "shot.png" {
		t.Fatalf("file name = %q, want shot.png", upload.FileName)
	}
	if upload.ContentType != "image/png" {
		t.Fatalf("content type = %q, want image/png", upload.ContentType)
	}
	if len(upload.Data) != len(data) {
		t.Fatalf("data length = %d, want %d", len(upload.Data), len(data))
	}
}

func TestLoadImageUploadRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadImageUpload(path); !errors.Is(err, ErrNotImage) {
		t.Fatalf("error = %v, want ErrNotImage", err)
	}
}

func TestLoadImageUploadMissingFile(t *testing.T) {
	if _, err := LoadImageUpload(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
