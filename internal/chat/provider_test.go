package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"openai", "OpenAI", "stub"} {
		p, err := NewProvider(ctx, Settings{Provider: name, APIKey: "k"})
		if err != nil {
			t.Fatalf("NewProvider(%q): %v", name, err)
		}
		if !strings.EqualFold(p.Name(), name) {
			t.Errorf("NewProvider(%q).Name() = %q", name, p.Name())
		}
	}

	if _, err := NewProvider(ctx, Settings{Provider: "bard"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestStubProvider(t *testing.T) {
	p := NewStubProvider()
	img := ImageInput{Name: "Slide1.png", MIMEType: "image/png", Data: []byte("abc")}

	desc, err := p.DescribeImage(context.Background(), ModelStub, img, "describe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(desc, "Slide1.png") {
		t.Errorf("expected description to name the file, got %q", desc)
	}

	sum, err := p.Generate(context.Background(), ModelStub, "", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum == "" {
		t.Error("expected non-empty summary")
	}
}

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(Settings{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: srv.URL + "/v1/"})
}

func TestOpenAIDescribeImage(t *testing.T) {
	var body string
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  A revenue chart  "}}]}`)
	})

	img := ImageInput{Name: "Slide2.png", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	text, err := p.DescribeImage(context.Background(), ModelGPT4o, img, "Describe the slide")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "A revenue chart" {
		t.Errorf("expected trimmed text, got %q", text)
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Errorf("request did not carry a data URL: %s", body)
	}
	if !strings.Contains(body, `"model":"gpt-4o"`) {
		t.Errorf("request did not carry the model: %s", body)
	}
	if !strings.Contains(body, "Describe the slide") {
		t.Errorf("request did not carry the instruction: %s", body)
	}
}

func TestOpenAIDescribeImageInvalidKey(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	_, err := p.DescribeImage(context.Background(), ModelGPT4o, ImageInput{Name: "a.png", MIMEType: "image/png"}, "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := Classify(err); kind != FailureInvalidKey {
		t.Errorf("expected invalid_key, got %v", kind)
	}
}

func TestOpenAIDescribeImageEmptyChoices(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-2","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	})

	_, err := p.DescribeImage(context.Background(), ModelGPT4o, ImageInput{Name: "a.png", MIMEType: "image/png"}, "x")
	if Classify(err) != FailureEmptyResponse {
		t.Errorf("expected empty_response, got %v (%v)", Classify(err), err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var body string
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"resp_1","object":"response","created_at":1,"status":"completed","model":"gpt-4o",
			"output":[{"type":"message","id":"msg_1","status":"completed","role":"assistant",
				"content":[{"type":"output_text","text":"Three trends stand out.","annotations":[]}]}]}`)
	})

	text, err := p.Generate(context.Background(), ModelGPT4o, "You are a helpful assistant.", "Summarize this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Three trends stand out." {
		t.Errorf("unexpected text %q", text)
	}
	if !strings.Contains(body, `"instructions":"You are a helpful assistant."`) {
		t.Errorf("request did not carry instructions: %s", body)
	}
}

func TestOpenAIBlankContentIsEmptyAnswer(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/responses") {
			io.WriteString(w, `{"id":"resp_2","object":"response","created_at":1,"status":"completed","model":"gpt-4o",
				"output":[{"type":"message","id":"msg_2","status":"completed","role":"assistant",
					"content":[{"type":"output_text","text":"  ","annotations":[]}]}]}`)
			return
		}
		io.WriteString(w, `{"id":"chatcmpl-3","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"   "}}]}`)
	})

	text, err := p.DescribeImage(context.Background(), ModelGPT4o, ImageInput{Name: "a.png", MIMEType: "image/png"}, "x")
	if err != nil || text != "" {
		t.Errorf("DescribeImage = %q, %v; want empty text and no error", text, err)
	}
	text, err = p.Generate(context.Background(), ModelGPT4o, "", "x")
	if err != nil || text != "" {
		t.Errorf("Generate = %q, %v; want empty text and no error", text, err)
	}
}

func TestOpenAIGenerateNoOutput(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"resp_3","object":"response","created_at":1,"status":"incomplete","model":"gpt-4o","output":[]}`)
	})

	_, err := p.Generate(context.Background(), ModelGPT4o, "", "x")
	if Classify(err) != FailureEmptyResponse {
		t.Errorf("expected empty_response, got %v (%v)", Classify(err), err)
	}
}
