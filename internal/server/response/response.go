package response

import (
	"encoding/json"
	"net/http"
)

type errorEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the {ok:false, error:code} envelope. Codes are stable,
// generic identifiers; no internal diagnostics cross this boundary.
func Error(w http.ResponseWriter, status int, code string) {
	JSON(w, status, errorEnvelope{OK: false, Error: code})
}
