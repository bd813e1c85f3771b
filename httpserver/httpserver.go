package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
)

type Provider interface {
	Start() error
	io.Closer
}

type Runner interface {
	Run()
}

type RunableProvider interface {
	Provider
	Runner
}

// StatusResponse is the envelope every JSON endpoint answers with.
// Status always mirrors the HTTP status code.
type StatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes v as the JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteStatus writes a StatusResponse with the given code and message.
func WriteStatus(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, StatusResponse{Status: status, Message: message})
}
