package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire format shared by every endpoint: status 0 for success,
// 1 for failure; on failure data carries the literal string "fail".
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Status: 0, Message: message, Data: data})
}

// Fail writes a failure envelope with the given HTTP status code.
func Fail(w http.ResponseWriter, code int, message string) {
	write(w, code, Envelope{Status: 1, Message: message, Data: "fail"})
}

func write(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}
