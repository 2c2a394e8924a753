package filehandler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoImages is returned when a directory holds no supported image files.
var ErrNoImages = errors.New("no images found")

// ScanDirectory lists the top level of dirPath and returns the regular files
// whose names end in .jpeg, .jpg or .png (any case).
//
// Entries are returned in the order the filesystem reports them, which is
// not sorted. Callers that need slide order use OrderSlides. Subdirectories
// are skipped even when their names look like images.
func ScanDirectory(dirPath string) ([]SlideImage, error) {
	log.Info().Str("path", dirPath).Msg("Scanning directory for slide images")

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	// os.ReadDir sorts by name; File.ReadDir keeps the native listing order.
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var images []SlideImage
	for _, entry := range entries {
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !IsImage(ext) {
			continue
		}

		path := filepath.Join(dirPath, name)
		fi, err := os.Stat(path) // follows symlinks
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to stat image, skipping")
			continue
		}
		if !fi.Mode().IsRegular() {
			log.Debug().Str("file", name).Msg("Skipping non-regular entry with image extension")
			continue
		}

		mimeType, _ := GetMIMEType(ext)
		images = append(images, SlideImage{
			Name:     name,
			Path:     path,
			MIMEType: mimeType,
			Size:     fi.Size(),
		})
	}

	if len(images) == 0 {
		log.Warn().Str("directory", dirPath).Int("entries", len(entries)).Msg("No slide images found")
		return nil, ErrNoImages
	}

	log.Info().
		Int("total_images", len(images)).
		Str("directory", dirPath).
		Msg("Directory scan complete")

	return images, nil
}
