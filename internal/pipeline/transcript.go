package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTranscript is returned when no slide produced any text.
var ErrEmptyTranscript = errors.New("no content generated from images")

// blockSeparator sits between two slide blocks of a transcript.
const blockSeparator = "\n\n\n"

// AssembleTranscript joins descriptions into "Slide 1:\n<d1>\n\n\nSlide 2:\n<d2>...".
// Labels follow the slice order. An empty slice, or one where every
// description is blank, yields ErrEmptyTranscript: labels alone carry no
// content worth saving.
func AssembleTranscript(descriptions []string) (string, error) {
	blocks := make([]string, len(descriptions))
	hasContent := false
	for i, desc := range descriptions {
		blocks[i] = fmt.Sprintf("Slide %d:\n%s", i+1, desc)
		if strings.TrimSpace(desc) != "" {
			hasContent = true
		}
	}
	if !hasContent {
		return "", ErrEmptyTranscript
	}
	return strings.Join(blocks, blockSeparator), nil
}
