package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotImage is returned when a comment attachment is not an image. The
// server validates again; this check just saves a doomed upload.
var ErrNotImage = errors.New("attachment must be an image")

// Upload is an in-memory file attachment for a multipart post.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// LoadImageUpload reads a file from disk and verifies it looks like an
// image, by extension first and content sniffing as a fallback.
func LoadImageUpload(path string) (*Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}

	return &Upload{
		FileName:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
