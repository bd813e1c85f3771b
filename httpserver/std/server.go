package std

import (
	"context"
	stdErr "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/mailtester/httpserver"
)

const ShutdownTimeout = 15 * time.Second

var _ httpserver.RunableProvider = (*Server)(nil)

type Config struct {
	Host        string        `envconfig:"WEBSERVER_HOST"`
	Port        int           `envconfig:"WEBSERVER_PORT" default:"3000"`
	TLSCertPath string        `envconfig:"WEBSERVER_TLS_CERT_PATH"`
	TLSKeyPath  string        `envconfig:"WEBSERVER_TLS_KEY_PATH"`
	ReadTimeout time.Duration `envconfig:"WEBSERVER_READ_TIMEOUT" default:"30s"`
}

type Server struct {
	logger *slog.Logger
	server *http.Server
	config Config

	mx   sync.Mutex
	addr net.Addr
}

// NewDefault is New with the server error log routed through slog.
func NewDefault(c Config, h http.Handler) *Server {
	s := New(c, h)

	s.server.ErrorLog = slog.NewLogLogger(s.logger.Handler(), slog.LevelError)

	return s
}

func New(c Config, h http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", c.Host, c.Port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
			ReadTimeout:       c.ReadTimeout,
		},
		logger: slog.Default().WithGroup("webserver"),
		config: c,
	}
}

// Start listens and serves until the server is closed.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.server.Addr)
	}

	s.mx.Lock()
	s.addr = ln.Addr()
	s.mx.Unlock()

	s.logger.Info("server starting", slog.String("addr", ln.Addr().String()))

	if s.config.TLSCertPath == "" {
		err = s.server.Serve(ln)
	} else {
		err = s.server.ServeTLS(ln, s.config.TLSCertPath, s.config.TLSKeyPath)
	}

	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return errors.Wrapf(err, "serve failed")
}

// Addr returns the bound listener address once Start has begun serving.
func (s *Server) Addr() net.Addr {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.addr
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		err = stdErr.Join(err, errors.Wrapf(s.server.Close(), "failed to close server"))
	}

	s.logger.Info("server closed")

	return errors.Wrapf(err, "server shutdown failed")
}

func (s *Server) Run() {
	go func() {
		err := s.Start()
		if err != nil {
			s.logger.With("error", err).Error("webserver crashed")
		}
	}()
}
