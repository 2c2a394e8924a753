package chat

import (
	"context"
	"fmt"
)

// StubProvider answers without any network access. It backs the "stub"
// provider setting used for demos and offline runs.
type StubProvider struct{}

// NewStubProvider returns a StubProvider.
func NewStubProvider() *StubProvider { return &StubProvider{} }

// Name implements Provider.
func (StubProvider) Name() string { return ProviderStub }

// DescribeImage returns a fixed description naming the image.
func (StubProvider) DescribeImage(_ context.Context, _ string, image ImageInput, _ string) (string, error) {
	return fmt.Sprintf("Stub description for %s (%d bytes, %s)", image.Name, len(image.Data), image.MIMEType), nil
}

// Generate returns a fixed summary sized after the prompt.
func (StubProvider) Generate(_ context.Context, _ string, _ string, prompt string) (string, error) {
	return fmt.Sprintf("Stub summary of a %d-character prompt", len(prompt)), nil
}
