package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fpang/slide-digest/internal/pipeline"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// PrintRun writes a per-slide status table followed by the artifact location.
func PrintRun(w io.Writer, run *pipeline.Run, elapsed time.Duration) {
	for _, s := range run.Slides {
		status := "ok"
		if !s.Result.OK() {
			status = "FAILED (" + s.Result.Failure.Kind.String() + ")"
		}
		fmt.Fprintf(w, "  Slide %-3d %-40s %s\n", s.Position, s.File, status)
	}
	if !run.SlideOrder {
		fmt.Fprintln(w, "  note: slide numbers could not be read from every file name; kept folder order")
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%d slides, %d failed, %s\n", len(run.Slides), run.Failures(), FormatDurationShort(elapsed))
	if run.Artifact != "" {
		fmt.Fprintf(w, "Results saved to %s\n", run.Artifact)
	}
}
