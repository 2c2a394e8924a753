package web

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fpang/slide-digest/internal/assets"
	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/pipeline"
	"github.com/fpang/slide-digest/internal/store"
)

func newTestServer(t *testing.T, mock bool) (*Server, http.Handler, *store.FileStore) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	profile, _ := assets.BuiltinProfiles().Lookup(assets.ProfileMarketTrends)
	p := pipeline.New(chat.NewStubProvider(), st, profile, pipeline.Options{Mock: mock})

	srv, err := NewServer(p, Options{UploadRoot: t.TempDir(), MaxUploadBytes: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	return srv, srv.Handler(), st
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, body)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("archive", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestUploadProcessDownloadSummarize(t *testing.T) {
	_, h, _ := newTestServer(t, true)

	data := zipBytes(t, map[string]string{
		"ABCPharma/Slide2.png":  "two",
		"ABCPharma/Slide10.png": "ten",
		"ABCPharma/Slide1.jpg":  "one",
		"ABCPharma/notes.txt":   "skip",
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "ABCPharma.zip", data))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	var up map[string]string
	json.Unmarshal(rec.Body.Bytes(), &up)
	if up["message"] != "Folder uploaded and extracted successfully!" || up["uploadId"] == "" {
		t.Fatalf("unexpected upload response %v", up)
	}

	rec, out := doJSON(t, h, http.MethodPost, "/api/process", `{"uploadId":"`+up["uploadId"]+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("process status = %d: %s", rec.Code, rec.Body.String())
	}
	want := "Slide 1:\nMock response for Slide1.jpg\n\n\nSlide 2:\nMock response for Slide2.png\n\n\nSlide 3:\nMock response for Slide10.png"
	if out["transcript"] != want {
		t.Errorf("transcript = %q", out["transcript"])
	}
	if out["message"] != "Images processed successfully! Results saved to output.txt." {
		t.Errorf("message = %q", out["message"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcript", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != want {
		t.Fatalf("download = %d %q", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="output.txt"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/api/summary", `{"tone":"formal","audience":"Pharmacist","example":"Short."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rec.Code, rec.Body.String())
	}
	if out["ok"] != true || !strings.HasPrefix(out["summary"].(string), "Stub summary") {
		t.Errorf("unexpected summary response %v", out)
	}
}

func TestProcessWithoutUpload(t *testing.T) {
	_, h, _ := newTestServer(t, true)

	rec, out := doJSON(t, h, http.MethodPost, "/api/process", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["warning"] != "Please upload a folder with images first!" {
		t.Errorf("warning = %v", out["warning"])
	}
}

func TestProcessRejectsBadUploadID(t *testing.T) {
	_, h, _ := newTestServer(t, true)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/process", `{"uploadId":"../../etc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProcessUsesLatestUploadByDefault(t *testing.T) {
	_, h, _ := newTestServer(t, true)

	for _, name := range []string{"first", "second"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, uploadRequest(t, name+".zip", zipBytes(t, map[string]string{name + "/Slide1_" + name + ".png": "x"})))
		if rec.Code != http.StatusOK {
			t.Fatalf("upload %s: %d", name, rec.Code)
		}
	}

	// Slide1_first is not a valid number, so the single file is kept as listed.
	rec, out := doJSON(t, h, http.MethodPost, "/api/process", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(out["transcript"].(string), "Slide1_second.png") {
		t.Errorf("expected the latest upload to be processed, got %q", out["transcript"])
	}
}

func TestProcessArchiveWithoutImages(t *testing.T) {
	_, h, st := newTestServer(t, true)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "deck.zip", zipBytes(t, map[string]string{"deck/readme.txt": "x"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec, out := doJSON(t, h, http.MethodPost, "/api/process", "")
	if rec.Code != http.StatusConflict || out["warning"] == nil {
		t.Fatalf("expected warning, got %d %v", rec.Code, out)
	}
	if _, err := st.Read(context.Background(), "output.txt"); err == nil {
		t.Error("no transcript should be written")
	}
}

func TestUploadRejectsNonZip(t *testing.T) {
	_, h, _ := newTestServer(t, true)

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"wrong extension", "deck.rar", []byte("x")},
		{"not a zip", "deck.zip", []byte("plain text")},
		{"traversal entry", "deck.zip", zipBytes(t, map[string]string{"../evil.png": "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, uploadRequest(t, tt.filename, tt.data))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUploadMissingField(t *testing.T) {
	_, h, _ := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSummaryBeforeProcessing(t *testing.T) {
	_, h, _ := newTestServer(t, false)

	rec, out := doJSON(t, h, http.MethodPost, "/api/summary", `{"tone":"formal"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["warning"] != "Please process images first to generate output.txt!" {
		t.Errorf("warning = %v", out["warning"])
	}
}

func TestSummaryEmptyTranscript(t *testing.T) {
	_, h, st := newTestServer(t, false)
	st.Write(context.Background(), "output.txt", "")

	rec, out := doJSON(t, h, http.MethodPost, "/api/summary", "")
	if rec.Code != http.StatusConflict || out["warning"] != "Failed to read content from output.txt!" {
		t.Errorf("got %d %v", rec.Code, out)
	}
}

func TestSummaryRejectsUnknownFields(t *testing.T) {
	_, h, _ := newTestServer(t, false)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/summary", `{"temperature":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTranscriptBeforeProcessing(t *testing.T) {
	_, h, _ := newTestServer(t, false)
	rec, out := doJSON(t, h, http.MethodGet, "/api/transcript", "")
	if rec.Code != http.StatusConflict || out["warning"] == nil {
		t.Errorf("got %d %v", rec.Code, out)
	}
}

func TestIndexAndMethods(t *testing.T) {
	_, h, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Generate Summary") {
		t.Errorf("index = %d", rec.Code)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing security headers")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/process = %d, want 405", rec.Code)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/summary", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"deck.zip", false},
		{"a/b.zip", false},
		{"../deck.zip", true},
		{"a/../../b.zip", true},
		{`..\deck.zip`, false}, // backslashes are not separators on Unix
	}
	for _, tt := range tests {
		if got := containsPathTraversal(tt.path); got != tt.want {
			t.Errorf("containsPathTraversal(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
