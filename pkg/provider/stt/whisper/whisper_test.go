package whisper_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/stt"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/stt/whisper"
)

// ---- helpers ----------------------------------------------------------------

type inference struct {
	language    string
	model       string
	filename    string
	contentType string
	audio       string
}

// newMockServer creates a test server that responds to POST /inference with a
// JSON body containing responseText. Every parsed upload is sent on the
// returned channel.
func newMockServer(t *testing.T, responseText string, calls *atomic.Int32) (*httptest.Server, <-chan inference) {
	t.Helper()
	got := make(chan inference, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/inference" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if calls != nil {
			calls.Add(1)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in := inference{
			language: r.FormValue("language"),
			model:    r.FormValue("model"),
		}
		if f, hdr, err := r.FormFile("file"); err == nil {
			in.filename = hdr.Filename
			in.contentType = hdr.Header.Get("Content-Type")
			b, _ := io.ReadAll(f)
			in.audio = string(b)
			f.Close()
		}
		got <- in
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": responseText})
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

// ---- tests ------------------------------------------------------------------

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()
	if _, err := whisper.New(""); err == nil {
		t.Fatal("expected error for empty server URL")
	}
}

func TestTranscribe_UploadsRecording(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv, got := newMockServer(t, "  Hallo, hier Meier.  ", &calls)

	p, err := whisper.New(srv.URL+"/", whisper.WithModel("small"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wav := append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 16)...)
	res, err := p.Transcribe(context.Background(), stt.Request{Audio: wav})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "Hallo, hier Meier." {
		t.Errorf("text = %q, want trimmed transcript", res.Text)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}

	in := <-got
	if in.language != "de" {
		t.Errorf("language = %q, want de", in.language)
	}
	if in.model != "small" {
		t.Errorf("model = %q, want small", in.model)
	}
	if in.filename != "audio.wav" || in.contentType != "audio/wav" {
		t.Errorf("file = %q (%q), want audio.wav (audio/wav)", in.filename, in.contentType)
	}
	if in.audio != string(wav) {
		t.Error("uploaded audio differs from input")
	}
}

func TestTranscribe_RequestLanguageWins(t *testing.T) {
	t.Parallel()

	srv, got := newMockServer(t, "hello", nil)
	p, _ := whisper.New(srv.URL)

	if _, err := p.Transcribe(context.Background(), stt.Request{Audio: []byte{1, 2, 3}, Language: "en"}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if in := <-got; in.language != "en" {
		t.Errorf("language = %q, want en", in.language)
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	t.Parallel()
	p, _ := whisper.New("http://127.0.0.1:1")
	if _, err := p.Transcribe(context.Background(), stt.Request{}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p, _ := whisper.New(srv.URL)
	if _, err := p.Transcribe(context.Background(), stt.Request{Audio: []byte{1}}); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestTranscribe_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv, _ := newMockServer(t, "x", nil)
	p, _ := whisper.New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Transcribe(ctx, stt.Request{Audio: []byte{1}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
