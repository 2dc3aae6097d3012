package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError answers with {"error": msg}. Middleware failures use the
// same body shape as the handlers so clients only parse one error form.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
