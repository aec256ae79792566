package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirfaxe-ai/aok-training-backend/internal/conversation"
	"github.com/sirfaxe-ai/aok-training-backend/internal/feedback"
	"github.com/sirfaxe-ai/aok-training-backend/internal/gateway"
	"github.com/sirfaxe-ai/aok-training-backend/internal/observe"
	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
	"github.com/sirfaxe-ai/aok-training-backend/internal/voice"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	ProfileID string `json:"profileId"`

	// History is kept raw: a value that is not a list of messages is treated
	// like an absent history instead of failing the request.
	History json.RawMessage `json:"history,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// TranscribeRequest is the body of POST /transcribe.
type TranscribeRequest struct {
	AudioBase64 string `json:"audioBase64"`
}

// TranscribeResponse is the body of every 200 answer of POST /transcribe.
// Error is set when nothing could be recognised.
type TranscribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// VoiceRequest is the body of POST /voice.
type VoiceRequest struct {
	Text      string `json:"text"`
	ProfileID string `json:"profileId"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	Transcript string `json:"transcript"`
	ProfileID  string `json:"profileId"`
}

// FeedbackResponse is the body of a successful POST /feedback.
type FeedbackResponse struct {
	Feedback string `json:"feedback"`
}

// PersonasResponse is the body of GET /personas.
type PersonasResponse struct {
	Personas []*persona.Profile `json:"personas"`
}

// Chat answers as the simulated customer. Unknown or missing profile ids
// fall back to the generic customer.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	log := observe.Logger(ctx)

	history := decodeHistory(ctx, req.History)

	profile := s.resolve(ctx, req.ProfileID, "chat")
	turns := conversation.Assemble(s.deps.Prompts.BuildSystemPrompt(profile), history)

	reply, err := s.deps.Completion.Complete(ctx, turns, s.chatOpts)
	switch {
	case err == nil:
	case gateway.CodeOf(err) == gateway.CodeEmptyResponse:
		log.Warn("api: chat: empty model reply, sending fallback line", "profile", persona.Label(profile))
		reply = ChatFallbackReply
	default:
		logGatewayError(ctx, "chat", err)
		writeError(w, http.StatusInternalServerError, msgChatFailed)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// decodeHistory decodes the client history element by element. Elements that
// are not message objects are dropped on their own; a value that is not a
// list yields an empty history.
func decodeHistory(ctx context.Context, raw json.RawMessage) []conversation.HistoryItem {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		observe.Logger(ctx).Debug("api: chat history is not a message list, starting fresh", "err", err)
		return nil
	}
	history := make([]conversation.HistoryItem, 0, len(elems))
	for i, elem := range elems {
		var item conversation.HistoryItem
		if err := json.Unmarshal(elem, &item); err != nil {
			observe.Logger(ctx).Debug("api: skipping malformed history item", "index", i, "err", err)
			continue
		}
		history = append(history, item)
	}
	return history
}

// Transcribe converts a base64 recording to text. Undecodable audio and
// silence are soft failures answered with 200 and an empty text.
func (s *Server) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AudioBase64) == "" {
		writeError(w, http.StatusBadRequest, msgAudioMissing)
		return
	}
	ctx := r.Context()

	audio, err := decodeAudio(req.AudioBase64)
	if err != nil || len(audio) == 0 {
		observe.Logger(ctx).Info("api: transcribe: undecodable audio", "err", err, "bytes", len(audio))
		writeJSON(w, http.StatusOK, TranscribeResponse{Error: msgAudioUndecoded})
		return
	}

	text, err := s.deps.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		logGatewayError(ctx, "transcribe", err)
		writeError(w, http.StatusInternalServerError, msgTranscribeFail)
		return
	}
	if text == "" {
		writeJSON(w, http.StatusOK, TranscribeResponse{Error: msgNoSpeech})
		return
	}
	writeJSON(w, http.StatusOK, TranscribeResponse{Text: text})
}

// Voice speaks text with the voice of the requested persona and writes the
// raw audio.
func (s *Server) Voice(w http.ResponseWriter, r *http.Request) {
	var req VoiceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, msgTextMissing)
		return
	}
	ctx := r.Context()

	profile := s.resolve(ctx, req.ProfileID, "voice")
	audio, err := s.deps.Speech.Synthesize(ctx, text, voice.Resolve(profile))
	if err != nil {
		logGatewayError(ctx, "voice", err)
		writeError(w, http.StatusInternalServerError, msgTTSFailed)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio.Data); err != nil {
		observe.Logger(ctx).Debug("api: voice: write audio", "err", err)
	}
}

// Feedback evaluates a finished training call.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()

	// Count before validation fails so that rejected requests show up too.
	s.metrics.RecordPersonaRequest(ctx, persona.Label(s.deps.Personas.Resolve(req.ProfileID)), "feedback")

	out, err := s.deps.Feedback.Compose(ctx, feedback.Request{
		Transcript: req.Transcript,
		ProfileID:  req.ProfileID,
	})
	if err != nil {
		var ve *feedback.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, msgTranscriptEmpty)
			return
		}
		logGatewayError(ctx, "feedback", err)
		writeError(w, http.StatusInternalServerError, msgFeedbackFailed)
		return
	}
	writeJSON(w, http.StatusOK, FeedbackResponse{Feedback: out})
}

// Personas lists the selectable customers without their prompt internals.
func (s *Server) Personas(w http.ResponseWriter, _ *http.Request) {
	profiles := s.deps.Personas.Profiles()
	if profiles == nil {
		profiles = []*persona.Profile{}
	}
	writeJSON(w, http.StatusOK, PersonasResponse{Personas: profiles})
}

// decodeAudio accepts plain base64 or a data URL and tolerates line breaks,
// missing padding and the URL-safe alphabet.
func decodeAudio(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// logGatewayError logs the cause of a failed gateway call. Callers that went
// away are not an error of this service.
func logGatewayError(ctx context.Context, route string, err error) {
	log := observe.Logger(ctx)
	code := gateway.CodeOf(err)
	if code == gateway.CodeCanceled || errors.Is(err, context.Canceled) {
		log.Info("api: client went away", "route", route, "err", err)
		return
	}
	log.Error("api: gateway call failed", "route", route, "code", string(code), "err", err)
}
