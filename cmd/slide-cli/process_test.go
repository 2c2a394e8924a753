package main

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/slide-digest/internal/cli"
	"github.com/fpang/slide-digest/internal/config"
	"github.com/fpang/slide-digest/internal/pipeline"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

// isolateTempDir points os.MkdirTemp at a fresh directory and returns it.
func isolateTempDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("TMPDIR", root)
	return root
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}

func newStubPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	cfg := config.Config{
		Provider:       "stub",
		PromptProfile:  "general",
		Storage:        "file",
		DataDir:        t.TempDir(),
		TranscriptName: "output.txt",
		MaxUploadMB:    1,
		Mock:           true,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	p, err := cli.BuildPipeline(context.Background(), cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtractSlideArchive(t *testing.T) {
	tmpRoot := isolateTempDir(t)
	archive := filepath.Join(t.TempDir(), "Deck.zip")
	writeZip(t, archive, map[string]string{"Deck/Slide1.png": "a", "Deck/Slide2.png": "b"})

	dir, cleanup, err := extractSlideArchive(archive, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != "Deck" {
		t.Errorf("image dir = %q, want the Deck folder", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "Slide1.png")); err != nil {
		t.Errorf("slide not extracted: %v", err)
	}

	cleanup()
	assertEmptyDir(t, tmpRoot)
}

func TestExtractSlideArchiveFailureLeavesNothing(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		garbage  bool
		maxBytes int64
	}{
		{name: "not a zip", garbage: true, maxBytes: 1 << 20},
		{name: "over the size limit", files: map[string]string{"Slide1.png": "0123456789"}, maxBytes: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpRoot := isolateTempDir(t)
			archive := filepath.Join(t.TempDir(), "deck.zip")
			if tt.garbage {
				os.WriteFile(archive, []byte("not a zip"), 0o644)
			} else {
				writeZip(t, archive, tt.files)
			}

			_, cleanup, err := extractSlideArchive(archive, tt.maxBytes)
			if err == nil {
				t.Fatal("expected an extraction error")
			}
			cleanup()
			assertEmptyDir(t, tmpRoot)
		})
	}
}

// A failed run must still be followed by cleanup of the extracted archive,
// which runProcess does before exiting.
func TestProcessFolderFailureStillCleansUp(t *testing.T) {
	tmpRoot := isolateTempDir(t)
	archive := filepath.Join(t.TempDir(), "Deck.zip")
	writeZip(t, archive, map[string]string{"Deck/Slide1.png": "a"})

	dir, cleanup, err := extractSlideArchive(archive, 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = processFolder(ctx, newStubPipeline(t), dir)
	cleanup()
	if err == nil {
		t.Fatal("expected processing to fail on a canceled context")
	}
	assertEmptyDir(t, tmpRoot)
}

func TestProcessFolderNoImagesIsNotAnError(t *testing.T) {
	if err := processFolder(context.Background(), newStubPipeline(t), t.TempDir()); err != nil {
		t.Errorf("expected nil for an empty folder, got %v", err)
	}
}
