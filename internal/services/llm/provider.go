package llm

import (
	"context"

	"google.golang.org/genai"
)

// Part is one piece of multimodal input. Exactly one of Text or PDF is
// set; Label, when present, is rendered as a text marker ahead of a PDF so
// the model can tell attachments apart.
type Part struct {
	Text  string
	PDF   []byte
	Label string
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// PDFPart builds a labeled PDF attachment part.
func PDFPart(label string, pdf []byte) Part {
	return Part{Label: label, PDF: pdf}
}

// GenerateRequest describes one structured-output generation call.
type GenerateRequest struct {
	// Model overrides the provider's default model when non-empty.
	Model string

	// System is the system instruction.
	System string

	// Parts is the user content in order.
	Parts []Part

	// Schema constrains the response to a JSON structure. Providers that
	// enforce schemas natively attach it to the request; others embed it
	// in the instruction.
	Schema *genai.Schema

	// Temperature for this call.
	Temperature float32

	// ThinkingBudget in tokens, 0 for the provider default.
	ThinkingBudget int32
}

// Provider executes a single structured generation attempt and returns the
// raw JSON response bytes. Implementations enforce the global in-flight cap
// and the per-attempt timeout; retry policy lives with the caller.
type Provider interface {
	GenerateStructured(ctx context.Context, req GenerateRequest) ([]byte, error)
	Name() string
	Close() error
}
