// Package stt defines the Provider interface for speech-to-text backends.
//
// A transcription provider takes one complete recording (browser-recorded
// WebM/Opus, WAV, MP3, …) and returns the recognised text. There is no
// streaming: the caller uploads the whole clip and blocks on the result.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Request describes a single recording to transcribe.
type Request struct {
	// Audio is the encoded recording. It is passed through unchanged.
	Audio []byte

	// Filename is the upload name sent to the backend. Many backends infer the
	// container format from its extension. When empty, [DetectFormat] is used.
	Filename string

	// ContentType is the MIME type of Audio. When empty, [DetectFormat] is used.
	ContentType string

	// Language is an optional ISO-639-1 hint (e.g. "de").
	Language string

	// Prompt is an optional vocabulary hint (names the model should expect).
	Prompt string
}

// Result is the outcome of a transcription.
type Result struct {
	// Text is the recognised speech. May be empty when nothing was understood.
	Text string
}

// Provider is the abstraction over any transcription backend.
type Provider interface {
	// Transcribe uploads req.Audio and waits for the recognised text.
	// It must return promptly once ctx is cancelled.
	Transcribe(ctx context.Context, req Request) (*Result, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}
