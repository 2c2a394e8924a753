// Package web serves the browser UI and JSON API of the slide pipeline:
// upload a zipped slide folder, process it into a transcript, download the
// transcript, and generate a summary. The same handler runs behind
// net/http locally and behind API Gateway in Lambda.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/filehandler"
	"github.com/fpang/slide-digest/internal/pipeline"
	"github.com/fpang/slide-digest/internal/store"
)

//go:embed static/index.html
var staticFS embed.FS

const (
	maxJSONBody = 1 << 20

	// uploadedArchiveName is the name the uploaded zip is saved under,
	// inside its upload directory, before extraction.
	uploadedArchiveName = "uploaded.zip"
)

// User-facing messages.
const (
	msgUploaded        = "Folder uploaded and extracted successfully!"
	msgUploadFirst     = "Please upload a folder with images first!"
	msgNoImages        = "No image files found in the uploaded folder."
	msgNoContent       = "No content generated from images. Please check your API or input files."
	msgProcessFirstFmt = "Please process images first to generate %s!"
	msgReadFailedFmt   = "Failed to read content from %s!"
	msgProcessedFmt    = "Images processed successfully! Results saved to %s."
)

// Options configure a Server.
type Options struct {
	// UploadRoot receives one directory per upload.
	UploadRoot string
	// MaxUploadBytes caps the archive upload size.
	MaxUploadBytes int64
	// Uploads, when set, keeps every archive outside this process so that
	// any instance can serve a process request for it. Without it uploads
	// live only in this Server's memory and UploadRoot.
	Uploads store.UploadStore
}

// upload is one extracted archive.
type upload struct {
	ID          string
	ArchiveName string
	ImageDir    string
}

// Server holds the pipeline and the uploads extracted by this instance.
// Requests are served concurrently, so the upload table is guarded by mu.
type Server struct {
	pipeline *pipeline.Pipeline
	opts     Options

	mu      sync.Mutex
	uploads map[string]upload
	current string

	// restoreMu serializes downloads from Options.Uploads.
	restoreMu sync.Mutex
}

// NewServer returns a Server. The upload root is created if missing.
func NewServer(p *pipeline.Pipeline, opts Options) (*Server, error) {
	if opts.UploadRoot == "" {
		opts.UploadRoot = "./uploaded_images"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	if err := os.MkdirAll(opts.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &Server{pipeline: p, opts: opts, uploads: make(map[string]upload)}, nil
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	mux.HandleFunc("POST /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return withLogging(withCORS(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		httpError(w, http.StatusInternalServerError, "UI unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// POST /api/upload (multipart form, file field "archive")
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+(1<<20))

	file, header, err := r.FormFile("archive")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d MB", s.opts.MaxUploadBytes>>20))
			return
		}
		httpError(w, http.StatusBadRequest, "Missing zip file in form field \"archive\"")
		return
	}
	defer file.Close()

	archiveName := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(archiveName), ".zip") || containsPathTraversal(header.Filename) {
		httpError(w, http.StatusBadRequest, "Please upload a .zip file")
		return
	}

	id := uuid.NewString()
	dir := filepath.Join(s.opts.UploadRoot, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Msg("Failed to create upload directory")
		httpError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	zipPath := filepath.Join(dir, uploadedArchiveName)
	if err := saveUpload(file, zipPath); err != nil {
		os.RemoveAll(dir)
		log.Error().Err(err).Msg("Failed to save uploaded archive")
		httpError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	if err := filehandler.ExtractArchive(zipPath, dir, filehandler.ExtractLimit(s.opts.MaxUploadBytes)); err != nil {
		os.RemoveAll(dir)
		log.Warn().Err(err).Str("archive", archiveName).Msg("Rejected uploaded archive")
		httpError(w, http.StatusBadRequest, "Could not extract archive: "+err.Error())
		return
	}

	if s.opts.Uploads != nil {
		if err := s.persistUpload(r.Context(), store.Upload{ID: id, ArchiveName: archiveName}, zipPath); err != nil {
			os.RemoveAll(dir)
			log.Error().Err(err).Str("upload_id", id).Msg("Failed to persist uploaded archive")
			httpError(w, http.StatusInternalServerError, "Failed to store upload")
			return
		}
	}

	up := upload{ID: id, ArchiveName: archiveName, ImageDir: filehandler.ResolveImageDir(dir, archiveName)}
	s.mu.Lock()
	s.uploads[id] = up
	s.current = id
	s.mu.Unlock()

	log.Info().Str("upload_id", id).Str("archive", archiveName).Msg("Archive uploaded and extracted")
	respondJSON(w, http.StatusOK, map[string]string{
		"uploadId": id,
		"archive":  archiveName,
		"message":  msgUploaded,
	})
}

func saveUpload(src io.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) persistUpload(ctx context.Context, up store.Upload, zipPath string) error {
	f, err := os.Open(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.opts.Uploads.SaveUpload(ctx, up, f)
}

type processRequest struct {
	UploadID string `json:"uploadId"`
}

type slideJSON struct {
	Position    int    `json:"position"`
	File        string `json:"file"`
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	FailureKind string `json:"failureKind,omitempty"`
}

// errNoUpload means no upload matches a process request.
var errNoUpload = errors.New("no matching upload")

// lookupUpload returns the requested upload, or the most recent one when id
// is empty. With an upload store configured, an upload made on another
// instance is downloaded and extracted locally first.
func (s *Server) lookupUpload(ctx context.Context, id string) (upload, error) {
	if id == "" && s.opts.Uploads != nil {
		latest, err := s.opts.Uploads.LatestUpload(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return upload{}, errNoUpload
		}
		if err != nil {
			return upload{}, err
		}
		if _, err := uuid.Parse(latest); err != nil {
			return upload{}, fmt.Errorf("invalid latest upload id %q: %w", latest, err)
		}
		id = latest
	}

	s.mu.Lock()
	if id == "" {
		id = s.current
	}
	up, ok := s.uploads[id]
	s.mu.Unlock()
	if ok {
		return up, nil
	}
	if s.opts.Uploads == nil || id == "" {
		return upload{}, errNoUpload
	}
	return s.restoreUpload(ctx, id)
}

// restoreUpload downloads an upload saved by any instance and extracts it
// under UploadRoot, as handleUpload would have.
func (s *Server) restoreUpload(ctx context.Context, id string) (upload, error) {
	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()

	s.mu.Lock()
	up, ok := s.uploads[id]
	s.mu.Unlock()
	if ok {
		return up, nil
	}

	meta, body, err := s.opts.Uploads.OpenUpload(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return upload{}, errNoUpload
	}
	if err != nil {
		return upload{}, err
	}
	defer body.Close()

	dir := filepath.Join(s.opts.UploadRoot, id)
	if err := os.RemoveAll(dir); err != nil {
		return upload{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return upload{}, err
	}
	zipPath := filepath.Join(dir, uploadedArchiveName)
	if err := saveUpload(io.LimitReader(body, s.opts.MaxUploadBytes+1), zipPath); err != nil {
		os.RemoveAll(dir)
		return upload{}, fmt.Errorf("download upload %s: %w", id, err)
	}
	archiveName := filepath.Base(meta.ArchiveName)
	if err := filehandler.ExtractArchive(zipPath, dir, filehandler.ExtractLimit(s.opts.MaxUploadBytes)); err != nil {
		os.RemoveAll(dir)
		return upload{}, fmt.Errorf("extract upload %s: %w", id, err)
	}

	up = upload{ID: id, ArchiveName: archiveName, ImageDir: filehandler.ResolveImageDir(dir, archiveName)}
	s.mu.Lock()
	s.uploads[id] = up
	s.mu.Unlock()

	log.Info().Str("upload_id", id).Str("archive", archiveName).Msg("Upload restored from shared store")
	return up, nil
}

// POST /api/process
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UploadID != "" {
		if _, err := uuid.Parse(req.UploadID); err != nil {
			httpError(w, http.StatusBadRequest, "Invalid uploadId")
			return
		}
	}

	up, err := s.lookupUpload(r.Context(), req.UploadID)
	if errors.Is(err, errNoUpload) {
		httpWarning(w, msgUploadFirst)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("upload_id", req.UploadID).Msg("Failed to load upload")
		httpError(w, http.StatusInternalServerError, "Failed to load upload")
		return
	}

	run, err := s.pipeline.ProcessImages(r.Context(), up.ImageDir)
	switch {
	case errors.Is(err, filehandler.ErrNoImages):
		httpWarning(w, msgNoImages)
		return
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		httpError(w, http.StatusUnprocessableEntity, msgNoContent)
		return
	case err != nil:
		log.Error().Err(err).Str("upload_id", up.ID).Msg("Processing failed")
		httpError(w, http.StatusInternalServerError, "Processing failed: "+err.Error())
		return
	}

	slides := make([]slideJSON, 0, len(run.Slides))
	for _, sl := range run.Slides {
		item := slideJSON{Position: sl.Position, File: sl.File, OK: sl.Result.OK(), Description: sl.Result.String()}
		if !item.OK {
			item.FailureKind = sl.Result.Failure.Kind.String()
		}
		slides = append(slides, item)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":    fmt.Sprintf(msgProcessedFmt, s.pipeline.TranscriptName()),
		"uploadId":   up.ID,
		"transcript": run.Transcript,
		"slides":     slides,
		"slideOrder": run.SlideOrder,
		"failures":   run.Failures(),
		"download":   "/api/transcript",
	})
}

// GET /api/transcript
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	name := s.pipeline.TranscriptName()
	content, err := s.pipeline.Store().Read(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpWarning(w, fmt.Sprintf(msgProcessFirstFmt, name))
			return
		}
		log.Error().Err(err).Msg("Failed to read transcript for download")
		httpError(w, http.StatusInternalServerError, fmt.Sprintf(msgReadFailedFmt, name))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	io.WriteString(w, content)
}

// POST /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req pipeline.SummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := s.pipeline.TranscriptName()
	result, err := s.pipeline.Summarize(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrTranscriptMissing):
		httpWarning(w, fmt.Sprintf(msgProcessFirstFmt, name))
		return
	case pipeline.IsInputAbsent(err):
		httpWarning(w, fmt.Sprintf(msgReadFailedFmt, name))
		return
	case err != nil:
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"summary": result.String(), "ok": result.OK()}
	if !result.OK() {
		resp["failureKind"] = result.Failure.Kind.String()
	}
	respondJSON(w, http.StatusOK, resp)
}
