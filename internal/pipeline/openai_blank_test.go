package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fpang/slide-digest/internal/chat"
	"github.com/fpang/slide-digest/internal/store"
)

// A hosted model that answers every slide with empty content must be treated
// as blank descriptions: the run fails with ErrEmptyTranscript and nothing is
// persisted.
func TestProcessImagesOpenAIBlankContent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":""}}]}`)
	}))
	t.Cleanup(srv.Close)

	provider := chat.NewOpenAIProvider(chat.Settings{Provider: chat.ProviderOpenAI, APIKey: "k", BaseURL: srv.URL + "/v1/"})
	p, st := newTestPipeline(t, provider, Options{DescribeModel: chat.ModelGPT4o, TranscriptName: "deck.txt"})
	dir := slideDir(t, "Slide1.png", "Slide2.png")

	run, err := p.ProcessImages(context.Background(), dir)
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected one request per slide, got %d", got)
	}
	if run == nil || len(run.Slides) != 2 {
		t.Fatalf("expected per-slide results, got %+v", run)
	}
	for _, s := range run.Slides {
		if s.Result.Failure != nil {
			t.Errorf("%s: blank content must not be a failure, got %+v", s.File, s.Result.Failure)
		}
	}
	if _, err := st.Read(context.Background(), "deck.txt"); !errors.Is(err, store.ErrNotFound) {
		t.Error("empty transcript must not be written")
	}
}
