package scanning

import (
	"context"
	"strings"
)

// TextExtractor turns a receipt image into raw text
type TextExtractor interface {
	// ExtractText returns all text visible in the image, in reading order
	ExtractText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases the extractor's resources
	Close() error
}

// Transcriber turns a voice note into text
type Transcriber interface {
	// Transcribe returns the spoken words in the audio
	Transcribe(ctx context.Context, audioData []byte, contentType string) (string, error)
}

// textExtractionPrompt asks a vision model to behave like a plain OCR engine
const textExtractionPrompt = `You are an OCR engine. Read every piece of text in this payout receipt or earnings screenshot and return it exactly as printed.

Rules:
- Output the text only, in reading order, one line per visual line
- Keep numbers, currency symbols (₹, Rs, INR), dates, signs and punctuation exactly as shown
- Do not correct, summarize, translate or explain anything
- Do not use markdown code blocks
- If the image contains no readable text, return an empty response`

// transcriptionPrompt asks a model for a verbatim transcript of a voice note
const transcriptionPrompt = `Transcribe this voice note from a delivery or ride-hailing driver word for word.
Return only the transcript as plain text. Do not add speaker labels, timestamps or commentary.`

// cleanModelText strips markdown fences and surrounding whitespace from a model reply
func cleanModelText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text")
		text = strings.TrimPrefix(text, "```plaintext")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
