package messaging

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"go.uber.org/zap"
)

// Server is an in-process NATS server. It satisfies server.Service so the
// lifecycle can own it.
type Server struct {
	ns     *server.Server
	logger *zap.Logger

	startupTimeout time.Duration
	host           string
	port           int

	once     sync.Once
	readyErr error
	ready    chan struct{}
	done     chan struct{}
	stop     sync.Once
}

// ServerOpt configures a Server.
type ServerOpt func(*Server)

// WithStartTimeout sets how long Listen waits for the server to accept clients.
func WithStartTimeout(d time.Duration) ServerOpt {
	return func(s *Server) { s.startupTimeout = d }
}

// WithHost sets the listen host.
func WithHost(host string) ServerOpt {
	return func(s *Server) { s.host = host }
}

// WithPort sets the listen port. -1 picks a free port.
func WithPort(port int) ServerOpt {
	return func(s *Server) { s.port = port }
}

// NewServer configures an embedded server. Nothing listens until Listen or Start.
func NewServer(logger *zap.Logger, opts ...ServerOpt) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:         logger,
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		port:           server.DEFAULT_PORT,
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true,
		NoLog:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	s.ns = ns
	return s, nil
}

// readyPoll bounds each readiness check so Listen can notice Stop.
const readyPoll = 50 * time.Millisecond

// ErrServerStopped is returned by Listen when Stop ran before the server
// became ready.
var ErrServerStopped = errors.New("nats server stopped")

// Listen starts the server and waits until it accepts connections. Calling
// it again returns the first result.
func (s *Server) Listen() error {
	s.once.Do(func() {
		s.readyErr = s.listen()
	})
	return s.readyErr
}

func (s *Server) listen() error {
	select {
	case <-s.done:
		return ErrServerStopped
	default:
	}
	go s.ns.Start()
	deadline := time.NewTimer(s.startupTimeout)
	defer deadline.Stop()
	for !s.ns.ReadyForConnections(readyPoll) {
		select {
		case <-s.done:
			return ErrServerStopped
		case <-deadline.C:
			return fmt.Errorf("nats server not ready after %s", s.startupTimeout)
		default:
		}
	}
	s.logger.Info("nats server listening", zap.String("url", s.ns.ClientURL()))
	close(s.ready)
	return nil
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Start listens and blocks until Stop.
func (s *Server) Start() error {
	err := s.Listen()
	if errors.Is(err, ErrServerStopped) {
		return nil
	}
	if err != nil {
		return err
	}
	<-s.done
	return nil
}

// Stop unblocks Start and shuts the server down.
func (s *Server) Stop() {
	s.stop.Do(func() {
		close(s.done)
		s.ns.Shutdown()
		s.ns.WaitForShutdown()
		s.logger.Info("nats server stopped")
	})
}

// ClientURL returns the URL clients connect to.
func (s *Server) ClientURL() string {
	return s.ns.ClientURL()
}
