package filehandler

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// slideMarker is the case-sensitive token presentation exporters put before
// the slide number ("Slide1.png", "Deck Slide 12.jpg").
const slideMarker = "Slide"

// SlideIndex derives the ordering number of a slide file name.
//
// Names without "Slide" get 0. Otherwise the text after the first "Slide",
// up to the next "Slide" and then up to the first '.', must be an integer:
// surrounding whitespace, a leading sign and single underscores between
// digits are accepted ("Slide 7.png", "Slide+3.png", "Slide1_0.png").
// Numbers are unbounded.
func SlideIndex(name string) (*big.Int, error) {
	_, rest, found := strings.Cut(name, slideMarker)
	if !found {
		return new(big.Int), nil
	}
	segment, _, _ := strings.Cut(rest, slideMarker)
	segment, _, _ = strings.Cut(segment, ".")

	n, err := parseLenientInt(segment)
	if err != nil {
		return nil, fmt.Errorf("slide index of %q: %w", name, err)
	}
	return n, nil
}

func parseLenientInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if digits == "" || digits[0] == '_' || digits[len(digits)-1] == '_' || strings.Contains(digits, "__") {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	for _, r := range digits {
		if r != '_' && (r < '0' || r > '9') {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
	}

	sign := s[:len(s)-len(digits)]
	n, ok := new(big.Int).SetString(sign+strings.ReplaceAll(digits, "_", ""), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// OrderSlides returns the images sorted by SlideIndex, ascending and stable.
//
// If the index of any single file cannot be derived, the whole batch is
// returned in its original order; a partial sort is never attempted. The
// second return value reports whether the slide-number order was applied.
func OrderSlides(images []SlideImage) ([]SlideImage, bool) {
	ordered := make([]SlideImage, len(images))
	copy(ordered, images)

	indexes := make(map[string]*big.Int, len(images))
	for _, img := range images {
		idx, err := SlideIndex(img.Name)
		if err != nil {
			log.Warn().
				Err(err).
				Str("file", img.Name).
				Int("total_images", len(images)).
				Msg("Cannot derive slide number, keeping directory listing order")
			return ordered, false
		}
		indexes[img.Name] = idx
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return indexes[ordered[i].Name].Cmp(indexes[ordered[j].Name]) < 0
	})

	log.Debug().Int("total_images", len(ordered)).Msg("Slides ordered by slide number")
	return ordered, true
}
