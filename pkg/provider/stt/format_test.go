package stt

import "testing"

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		wantFile string
		wantCT   string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), "audio.wav", "audio/wav"},
		{"ogg", []byte("OggS\x00\x02"), "audio.ogg", "audio/ogg"},
		{"mp3 id3", []byte("ID3\x04\x00"), "audio.mp3", "audio/mpeg"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "audio.mp3", "audio/mpeg"},
		{"flac", []byte("fLaC\x00"), "audio.flac", "audio/flac"},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), "audio.m4a", "audio/mp4"},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F}, "audio.webm", "audio/webm"},
		{"unknown", []byte("hello"), "audio.webm", "audio/webm"},
		{"empty", nil, "audio.webm", "audio/webm"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotFile, gotCT := DetectFormat(tc.data)
			if gotFile != tc.wantFile || gotCT != tc.wantCT {
				t.Errorf("DetectFormat = (%q, %q), want (%q, %q)", gotFile, gotCT, tc.wantFile, tc.wantCT)
			}
		})
	}
}

func TestNormalize_KeepsCallerValues(t *testing.T) {
	t.Parallel()
	r := Normalize(Request{Audio: []byte("OggS"), Filename: "clip.opus"})
	if r.Filename != "clip.opus" {
		t.Errorf("Filename = %q, want clip.opus", r.Filename)
	}
	if r.ContentType != "audio/ogg" {
		t.Errorf("ContentType = %q, want audio/ogg", r.ContentType)
	}
}
