package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fpang/slide-digest/internal/assets"
	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/pipeline"
	"github.com/fpang/slide-digest/internal/store"
)

// memUploads is an UploadStore shared between Server instances in a test.
type memUploads struct {
	mu       sync.Mutex
	archives map[string][]byte
	names    map[string]string
	latest   string
	saveErr  error
}

func newMemUploads() *memUploads {
	return &memUploads{archives: map[string][]byte{}, names: map[string]string{}}
}

func (m *memUploads) SaveUpload(_ context.Context, up store.Upload, archive io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(archive)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives[up.ID] = data
	m.names[up.ID] = up.ArchiveName
	m.latest = up.ID
	return nil
}

func (m *memUploads) OpenUpload(_ context.Context, id string) (store.Upload, io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.archives[id]
	if !ok {
		return store.Upload{}, nil, store.ErrNotFound
	}
	return store.Upload{ID: id, ArchiveName: m.names[id]}, io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memUploads) LatestUpload(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == "" {
		return "", store.ErrNotFound
	}
	return m.latest, nil
}

// newSharedServer builds one instance of a deployment whose instances share
// the transcript store and the upload store but not their local disks.
func newSharedServer(t *testing.T, st store.TranscriptStore, uploads store.UploadStore) (*Server, http.Handler) {
	t.Helper()
	profile, _ := assets.BuiltinProfiles().Lookup(assets.ProfileMarketTrends)
	p := pipeline.New(chat.NewStubProvider(), st, profile, pipeline.Options{Mock: true})
	srv, err := NewServer(p, Options{UploadRoot: t.TempDir(), MaxUploadBytes: 1 << 20, Uploads: uploads})
	if err != nil {
		t.Fatal(err)
	}
	return srv, srv.Handler()
}

func uploadTo(t *testing.T, h http.Handler, name string, files map[string]string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, name, zipBytes(t, files)))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	return out["uploadId"]
}

func TestProcessOnAnotherInstance(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	uploads := newMemUploads()
	_, first := newSharedServer(t, st, uploads)
	second, secondHandler := newSharedServer(t, st, uploads)

	id := uploadTo(t, first, "Deck.zip", map[string]string{
		"Deck/Slide2.png": "two",
		"Deck/Slide1.png": "one",
	})
	if _, ok := uploads.archives[id]; !ok {
		t.Fatalf("upload %s was not saved to the shared store", id)
	}

	rec, out := doJSON(t, secondHandler, http.MethodPost, "/api/process", `{"uploadId":"`+id+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("process on second instance = %d: %s", rec.Code, rec.Body.String())
	}
	want := "Slide 1:\nMock response for Slide1.png\n\n\nSlide 2:\nMock response for Slide2.png"
	if out["transcript"] != want {
		t.Errorf("transcript = %q", out["transcript"])
	}

	second.mu.Lock()
	restored := second.uploads[id]
	second.mu.Unlock()
	if filepath.Base(restored.ImageDir) != "Deck" {
		t.Errorf("restored image dir = %q, want the Deck folder", restored.ImageDir)
	}
}

func TestProcessLatestSharedUpload(t *testing.T) {
	st, _ := store.NewFileStore(t.TempDir())
	uploads := newMemUploads()
	_, first := newSharedServer(t, st, uploads)
	_, second := newSharedServer(t, st, uploads)

	rec, _ := doJSON(t, second, http.MethodPost, "/api/process", `{}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("process before any upload = %d, want 409", rec.Code)
	}

	uploadTo(t, first, "old.zip", map[string]string{"old/Slide1.png": "x"})
	uploadTo(t, first, "new.zip", map[string]string{"new/Slide1.png": "x", "new/Slide2.png": "y"})

	rec, out := doJSON(t, second, http.MethodPost, "/api/process", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("process = %d: %s", rec.Code, rec.Body.String())
	}
	if slides, _ := out["slides"].([]any); len(slides) != 2 {
		t.Errorf("expected the latest upload's 2 slides, got %v", out["slides"])
	}
}

func TestProcessUnknownSharedUpload(t *testing.T) {
	st, _ := store.NewFileStore(t.TempDir())
	_, h := newSharedServer(t, st, newMemUploads())

	rec, out := doJSON(t, h, http.MethodPost, "/api/process", `{"uploadId":"6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f"}`)
	if rec.Code != http.StatusConflict || out["warning"] != msgUploadFirst {
		t.Errorf("got %d %v, want 409 upload-first warning", rec.Code, out)
	}
}

func TestUploadFailsWhenSharedStoreFails(t *testing.T) {
	st, _ := store.NewFileStore(t.TempDir())
	uploads := newMemUploads()
	uploads.saveErr = errors.New("bucket unavailable")
	srv, h := newSharedServer(t, st, uploads)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "Deck.zip", zipBytes(t, map[string]string{"Slide1.png": "x"})))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("upload status = %d, want 500", rec.Code)
	}
	entries, _ := os.ReadDir(srv.opts.UploadRoot)
	if len(entries) != 0 {
		t.Errorf("failed upload left %d entries in the upload root", len(entries))
	}
}
