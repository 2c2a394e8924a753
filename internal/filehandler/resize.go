package filehandler

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// jpegQuality is used when a downscaled JPEG slide is re-encoded.
const jpegQuality = 90

// PrepareImage downscales an image whose longer side exceeds maxDimension,
// keeping the aspect ratio and the source format. Images within bounds,
// maxDimension <= 0, and images that cannot be decoded are returned
// unchanged so the provider sees exactly what was uploaded.
func PrepareImage(data []byte, mimeType string, maxDimension int) ([]byte, error) {
	if maxDimension <= 0 {
		return data, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("mime_type", mimeType).Msg("Cannot read image header, sending original")
		return data, nil
	}
	if cfg.Width <= maxDimension && cfg.Height <= maxDimension {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("mime_type", mimeType).Msg("Cannot decode image, sending original")
		return data, nil
	}

	bounds := img.Bounds()
	newWidth, newHeight := calculateDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch mimeType {
	case "image/png":
		err = png.Encode(&buf, resized)
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	log.Debug().
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("orig_size", len(data)).
		Int("output_size", buf.Len()).
		Msg("Slide image downscaled")

	return buf.Bytes(), nil
}

// calculateDimensions calculates new dimensions maintaining aspect ratio.
func calculateDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width > height {
		newHeight := int(float64(height) * float64(maxDimension) / float64(width))
		return maxDimension, max(newHeight, 1)
	}

	newWidth := int(float64(width) * float64(maxDimension) / float64(height))
	return max(newWidth, 1), maxDimension
}
