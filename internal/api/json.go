package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Client-facing messages. They are German because the training UI shows
// them to trainees verbatim.
const (
	msgBadRequest       = "Ungültige Anfrage"
	msgTooLarge         = "Anfrage zu groß"
	msgChatFailed       = "Chat-Fehler"
	msgTranscribeFail   = "Whisper-Fehler"
	msgTTSFailed        = "TTS-Fehler"
	msgFeedbackFailed   = "Feedback-Fehler"
	msgAudioMissing     = "audioBase64 fehlt"
	msgAudioUndecoded   = "Audio konnte nicht gelesen werden"
	msgNoSpeech         = "Keine Sprache erkannt"
	msgTextMissing      = "text fehlt"
	msgTranscriptEmpty  = "transcript fehlt"
	msgNotFound         = "Nicht gefunden"
	msgMethodNotAllowed = "Methode nicht erlaubt"
)

// ChatFallbackReply is sent when the model answers with nothing usable, so
// the conversation in the UI does not stall.
const ChatFallbackReply = "Entschuldigung, da ist etwas schiefgelaufen."

type errorBody struct {
	Error string `json:"error"`
}

// decodeJSON reads a size-limited JSON body into v. On failure it writes the
// error response itself and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return false
		}
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
