// Package filehandler discovers, orders and prepares slide images.
//
// Slides arrive as a zip archive exported from a presentation tool. The
// archive is extracted (ExtractArchive), the image folder is scanned in the
// filesystem's native order (ScanDirectory), ordered by the number embedded
// in each "SlideN" file name (OrderSlides), and each image is loaded and
// optionally downscaled before it is sent to a model (LoadImageData,
// PrepareImage).
package filehandler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedImageExtensions maps the accepted slide image extensions to their
// MIME types. Matching is case-insensitive.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// SlideImage is one discovered image file. Bytes are read on demand.
type SlideImage struct {
	Name     string
	Path     string
	MIMEType string
	Size     int64
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	if mimeType, ok := SupportedImageExtensions[strings.ToLower(ext)]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// IsImage returns true if the file extension corresponds to a slide image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// LoadImageData reads the full contents of a slide image.
func LoadImageData(img SlideImage) ([]byte, error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(img.Path), err)
	}

	log.Debug().
		Str("file", img.Name).
		Str("mime_type", img.MIMEType).
		Int("size_bytes", len(data)).
		Msg("Slide image loaded")

	return data, nil
}
