package imap

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"

	"mailgate/internal/store"
)

// Server is the IMAP listener serving the gateway's reply mailbox
type Server struct {
	addr      string
	hostname  string
	store     *store.Store
	tlsConfig *tls.Config

	listener net.Listener
	wg       sync.WaitGroup
	shutdown chan struct{}

	mu      sync.Mutex
	running bool
	conns   map[net.Conn]struct{}
}

// NewServer creates an IMAP server bound to the given address. tlsConfig may
// be nil, in which case the listener speaks plaintext.
func NewServer(addr, hostname string, st *store.Store, tlsConfig *tls.Config) *Server {
	return &Server{
		addr:      addr,
		hostname:  hostname,
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
		return fmt.Errorf("failed to start IMAP listener on %s: %w", s.addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	log.Printf("IMAP server listening on %s", s.addr)

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
				log.Printf("IMAP accept error: %v", err)
				continue
			}
		}

		log.Printf("New IMAP connection from: %s", conn.RemoteAddr())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			s.mu.Lock()
			s.conns[conn] = struct{}{}
			s.mu.Unlock()
			defer func() {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
			}()

			s.HandleConnection(conn)
		}()
	}
}

// HandleConnection runs one IMAP session to completion
func (s *Server) HandleConnection(netConn net.Conn) {
	defer netConn.Close()

	conn := newConn(netConn)
	state := &clientState{}

	conn.Send(fmt.Sprintf("* OK [CAPABILITY IMAP4rev1 IDLE] mailgate on %s ready", s.hostname))

	handleClient(s, conn, state)

	// Teardown must always release a held IDLE registration or the store
	// keeps pushing to a dead connection.
	if state.idleListenerID != "" {
		s.store.RemoveReplyListener(state.idleListenerID)
		state.idleListenerID = ""
	}

	log.Printf("IMAP connection closed: %s", netConn.RemoteAddr())
}

// Running reports whether the listener is up
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown closes the listener and every open connection
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

	log.Println("IMAP server shutdown complete")
	return err
}
