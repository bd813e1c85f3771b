package sendmail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pure-golang/mailtester/httpserver"
	"github.com/pure-golang/mailtester/logger"
)

// DefaultMaxBodyBytes caps the JSON body of a send request.
const DefaultMaxBodyBytes = 1 << 20

// MailDispatcher performs the delivery of a validated request.
type MailDispatcher interface {
	Dispatch(ctx context.Context, req MailRequest) (MailResult, error)
}

// HandlerConfig configures the HTTP endpoint.
type HandlerConfig struct {
	MaxBodyBytes int64 `envconfig:"MAIL_MAX_BODY_BYTES" default:"1048576"`
}

// Handler serves the send endpoint. Only POST is accepted; every response is
// a JSON MailResult whose status equals the HTTP status code.
type Handler struct {
	dispatcher   MailDispatcher
	maxBodyBytes int64
}

// NewHandler creates the send endpoint handler.
func NewHandler(d MailDispatcher, cfg HandlerConfig) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		dispatcher:   d,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := h.handle(ctx, r, w)

	err := httpserver.WriteJSON(w, result.Status, result)
	logger.FromContextWithErrIf(ctx, err).Warn("failed to write response")
}

func (h *Handler) handle(ctx context.Context, r *http.Request, w http.ResponseWriter) MailResult {
	log := logger.FromContext(ctx)

	if r.Method != http.MethodPost {
		return MailResult{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf(msgMethodNotAllowed, r.Method),
		}
	}

	var req MailRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		log.Info("send request body rejected", slog.String("error", err.Error()))
		return MailResult{Status: http.StatusBadRequest, Message: MsgInvalidBody}
	}

	if violations := Validate(req); len(violations) > 0 {
		log.Info("send request rejected", slog.String("violations", violations.Error()))
		return rejected(violations)
	}

	result, err := h.dispatcher.Dispatch(ctx, req)
	if err != nil {
		logger.FromContextWithErr(ctx, err).Error("send request failed",
			slog.String("to", req.ToEmail),
			slog.Int("status", result.Status),
		)
	}
	if result.Status == 0 {
		return internalError()
	}

	return result
}
