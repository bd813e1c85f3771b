package preview

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pure-golang/mailtester/httpserver"
	"github.com/pure-golang/mailtester/logger"
)

// DefaultMaxBodyBytes caps the request body of the preview endpoint.
const DefaultMaxBodyBytes = 1 << 20

// Request is the body accepted by the preview endpoint.
type Request struct {
	HTML string `json:"html"`
}

// Response carries both renditions of the submitted HTML.
type Response struct {
	httpserver.StatusResponse
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Handler serves POST /api/preview.
type Handler struct {
	maxBodyBytes int64
}

// NewHandler creates a preview handler. A non-positive limit falls back to
// DefaultMaxBodyBytes.
func NewHandler(maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{maxBodyBytes: maxBodyBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if r.Method != http.MethodPost {
		_ = httpserver.WriteStatus(w, http.StatusBadRequest, fmt.Sprintf("[%s] is not allowed", r.Method))
		return
	}

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		log.Debug("preview body rejected", "error", err.Error())
		_ = httpserver.WriteStatus(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := httpserver.WriteJSON(w, http.StatusOK, Response{
		StatusResponse: httpserver.StatusResponse{Status: http.StatusOK, Message: "OK"},
		HTML:           Sanitize(req.HTML),
		Text:           PlainText(req.HTML),
	})
	logger.FromContextWithErrIf(r.Context(), err).Warn("failed to write preview response")
}
