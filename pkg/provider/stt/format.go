package stt

import "bytes"

// DetectFormat inspects the leading bytes of an encoded recording and returns
// an upload filename and MIME type for it. Unknown data is reported as WebM,
// which is what browsers' MediaRecorder produces by default.
func DetectFormat(data []byte) (filename, contentType string) {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio.wav", "audio/wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return "audio.ogg", "audio/ogg"
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "audio.mp3", "audio/mpeg"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "audio.flac", "audio/flac"
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "audio.m4a", "audio/mp4"
	case bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "audio.webm", "audio/webm"
	default:
		return "audio.webm", "audio/webm"
	}
}

// Normalize returns a copy of r with Filename and ContentType filled in from
// the audio bytes when the caller left them empty.
func Normalize(r Request) Request {
	if r.Filename != "" && r.ContentType != "" {
		return r
	}
	name, ct := DetectFormat(r.Audio)
	if r.Filename == "" {
		r.Filename = name
	}
	if r.ContentType == "" {
		r.ContentType = ct
	}
	return r
}
