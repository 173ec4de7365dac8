package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// WriteJSON encodes payload as the response body with the given status. The
// payload is encoded before any header is sent, so an unencodable payload
// yields a 500 error body instead of a truncated response.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		zap.L().Error("encode JSON failed", zap.Error(err))
		buf.Reset()
		buf.WriteString(`{"error":"internal server error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
