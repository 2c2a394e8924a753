package chat

import "strings"

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Model IDs
//
// | Provider | API Model ID           | Use Case                               |
// |----------|------------------------|----------------------------------------|
// | OpenAI   | gpt-4o                 | Slide descriptions and summaries       |
// | OpenAI   | gpt-4o-mini            | Cheaper drafts                         |
// | Gemini   | gemini-2.5-flash       | Stable, balanced performance           |
// | Gemini   | gemini-2.5-pro         | Stable, high-reasoning summaries       |
// | Gemini   | gemini-3-flash-preview | Best for speed + intelligence          |
const (
	// ModelGPT4o is the multimodal model the tool was first built against.
	ModelGPT4o = "gpt-4o"

	// ModelGPT4oMini is a cheaper multimodal OpenAI model.
	ModelGPT4oMini = "gpt-4o-mini"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25Pro is stable, for high-reasoning tasks.
	ModelGemini25Pro = "gemini-2.5-pro"

	// ModelGemini3FlashPreview is best for speed + intelligence.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"

	// ModelStub is reported by the stub provider.
	ModelStub = "stub"
)

// DefaultModel returns the model used for both describe and summarize calls
// when the configuration does not name one.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderGemini:
		return ModelGemini25Flash
	case ProviderStub:
		return ModelStub
	default:
		return ModelGPT4o
	}
}

// IsKnownProvider reports whether NewProvider can build the named provider.
func IsKnownProvider(provider string) bool {
	switch strings.ToLower(provider) {
	case ProviderOpenAI, ProviderGemini, ProviderStub:
		return true
	}
	return false
}
