// Package web serves the single page editor of the mail tester.
package web

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/pkg/errors"

	"github.com/pure-golang/mailtester/logger"
)

//go:embed index.html
var indexHTML string

// Config holds the values the page pre-fills into every send request.
type Config struct {
	DefaultName    string `envconfig:"MAIL_DEFAULT_NAME" default:"Mail Tester"`
	DefaultSubject string `envconfig:"MAIL_DEFAULT_SUBJECT" default:"Email template testing"`
}

// Handler renders the page once and serves the cached bytes.
type Handler struct {
	page []byte
}

// NewHandler renders the embedded page with the defaults from cfg.
func NewHandler(cfg Config) (*Handler, error) {
	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse index template")
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Name    string
		Subject string
	}{
		Name:    cfg.DefaultName,
		Subject: cfg.DefaultSubject,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render index template")
	}

	return &Handler{page: buf.Bytes()}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.page); err != nil {
		logger.FromContext(r.Context()).Debug("failed to write page", "error", err.Error())
	}
}
