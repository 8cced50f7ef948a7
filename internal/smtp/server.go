package smtp

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"

	"mailgate/internal/store"
)

// Server is the SMTP listener that accepts mail for the gateway
type Server struct {
	addr      string
	hostname  string
	maxSize   int64
	store     *store.Store
	tlsConfig *tls.Config

	listener net.Listener
	wg       sync.WaitGroup
	shutdown chan struct{}

	mu      sync.Mutex
	running bool
	conns   map[net.Conn]struct{}
}

// NewServer creates an SMTP server bound to the given address. tlsConfig may
// be nil, in which case the listener speaks plaintext.
func NewServer(addr, hostname string, maxSize int64, st *store.Store, tlsConfig *tls.Config) *Server {
	return &Server{
		addr:      addr,
		hostname:  hostname,
		maxSize:   maxSize,
		store:     st,
		tlsConfig: tlsConfig,
		shutdown:  make(chan struct{}),
		conns:     make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and begins accepting connections. A bind failure
// is returned to the caller; the server simply does not start.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start SMTP listener on %s: %w", s.addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	log.Printf("SMTP server listening on %s", s.addr)

	s.wg.Add(1)
	go s.acceptConnections(listener)

	return nil
}

func (s *Server) acceptConnections(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				log.Printf("SMTP accept error: %v", err)
				continue
			}
		}

		log.Printf("New SMTP connection from: %s", conn.RemoteAddr())

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	session := NewSession(conn, s.hostname, s.maxSize, s.store)
	if err := session.Handle(); err != nil {
		log.Printf("SMTP session error from %s: %v", conn.RemoteAddr(), err)
	}

	log.Printf("SMTP connection closed: %s", conn.RemoteAddr())
}

// Running reports whether the listener is up
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown closes the listener and waits for open connections to finish
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	close(s.shutdown)

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()

	log.Println("SMTP server shutdown complete")
	return err
}
