package api

import (
	"bytes"
	"net/http"
)

// JSONFallback serves requests through mux and rewrites the mux's own plain
// text 404 and 405 answers into the JSON error shape of every other route.
// Requests that match a registered pattern are passed through untouched.
func JSONFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		// Unmatched: 404, 405 or a path-cleaning redirect.
		bw := &bufferedWriter{header: make(http.Header), code: http.StatusOK}
		mux.ServeHTTP(bw, r)

		switch bw.code {
		case http.StatusNotFound:
			writeError(w, http.StatusNotFound, msgNotFound)
		case http.StatusMethodNotAllowed:
			if allow := bw.header.Get("Allow"); allow != "" {
				w.Header().Set("Allow", allow)
			}
			writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		default:
			for k, v := range bw.header {
				w.Header()[k] = v
			}
			w.WriteHeader(bw.code)
			_, _ = w.Write(bw.body.Bytes())
		}
	})
}

// bufferedWriter holds a response so it can be inspected before sending.
type bufferedWriter struct {
	header      http.Header
	code        int
	wroteHeader bool
	body        bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.code = code
	b.wroteHeader = true
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}
