// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider turns one complete customer reply into one encoded audio
// clip. The caller chooses the voice, the speaking rate and an optional
// delivery instruction; the provider returns the encoded bytes together with
// their MIME type.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Format is the container/codec requested from the backend.
type Format string

const (
	// FormatWAV is uncompressed RIFF/WAV. This is the default.
	FormatWAV Format = "wav"

	// FormatMP3 is MPEG-1 Layer III.
	FormatMP3 Format = "mp3"
)

// ContentType returns the MIME type for f. Unknown formats map to audio/wav.
func (f Format) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "audio/wav"
	}
}

// Request describes a single synthesis call.
type Request struct {
	// Text is the utterance to speak. Must be non-empty.
	Text string

	// Voice is the provider-specific voice identifier (e.g. "alloy").
	Voice string

	// Speed is the speaking-rate multiplier. Nil means the backend default.
	Speed *float64

	// Instructions is an optional free-text delivery hint (tone, pace, mood).
	Instructions string

	// Format selects the output encoding. Empty means FormatWAV.
	Format Format
}

// Audio is an encoded speech clip.
type Audio struct {
	// Data is the encoded audio.
	Data []byte

	// ContentType is the MIME type of Data (e.g. "audio/wav").
	ContentType string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders req.Text and returns the complete encoded clip.
	// It must return promptly once ctx is cancelled.
	Synthesize(ctx context.Context, req Request) (*Audio, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}
