package smtp

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"

	"mailgate/internal/message"
	"mailgate/internal/store"
)

// sessionState tracks the SMTP transaction state machine:
// greeted -> (EHLO/HELO) -> ready -> (MAIL) -> haveSender -> (RCPT)* ->
// haveRecipients -> (DATA) -> ready. RSET returns to ready from any state.
type sessionState int

const (
	stateGreeted sessionState = iota
	stateReady
	stateHaveSender
	stateHaveRecipients
)

// authStep tracks the two-step AUTH LOGIN exchange
type authStep int

const (
	authNone authStep = iota
	authAwaitInitial // AUTH PLAIN sent without an initial response
	authAwaitUsername
	authAwaitPassword
)

// Session is one SMTP connection's state machine. All transaction state is
// private to the connection; only the final store handoff touches shared
// state.
type Session struct {
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	hostname string
	maxSize  int64
	store    *store.Store

	state      sessionState
	auth       authStep
	mailFrom   string
	recipients []string
}

// NewSession creates a session for one accepted connection
func NewSession(conn net.Conn, hostname string, maxSize int64, st *store.Store) *Session {
	return &Session{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		writer:   bufio.NewWriter(conn),
		hostname: hostname,
		maxSize:  maxSize,
		store:    st,
		state:    stateGreeted,
	}
}

// Handle runs the session until QUIT or connection teardown
func (s *Session) Handle() error {
	if err := s.sendResponse(220, "%s ESMTP mailgate ready", s.hostname); err != nil {
		return err
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		// A pending AUTH exchange consumes the line as a credential
		if s.auth != authNone {
			if err := s.handleAuthStep(line); err != nil {
				return err
			}
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToUpper(parts[0])
		args := ""
		if len(parts) > 1 {
			args = parts[1]
		}

		quit, err := s.handleCommand(cmd, args)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (s *Session) handleCommand(cmd, args string) (bool, error) {
	switch cmd {
	case "EHLO":
		return false, s.handleEHLO(args)
	case "HELO":
		return false, s.handleHELO(args)
	case "MAIL":
		return false, s.handleMAIL(args)
	case "RCPT":
		return false, s.handleRCPT(args)
	case "DATA":
		return false, s.handleDATA()
	case "AUTH":
		return false, s.handleAUTH(args)
	case "RSET":
		s.resetTransaction()
		s.state = stateReady
		return false, s.sendResponse(250, "Reset state")
	case "NOOP":
		return false, s.sendResponse(250, "OK")
	case "QUIT":
		err := s.sendResponse(221, "%s closing connection", s.hostname)
		return true, err
	default:
		return false, s.sendResponse(500, "Command not recognized")
	}
}

func (s *Session) handleEHLO(args string) error {
	s.resetTransaction()
	s.state = stateReady

	responses := []string{
		fmt.Sprintf("250-%s", s.hostname),
		"250-AUTH PLAIN LOGIN",
		fmt.Sprintf("250-SIZE %d", s.maxSize),
		"250 8BITMIME",
	}
	for _, resp := range responses {
		if err := s.sendRawResponse(resp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handleHELO(args string) error {
	s.resetTransaction()
	s.state = stateReady
	return s.sendResponse(250, "%s", s.hostname)
}

func (s *Session) handleMAIL(args string) error {
	if s.state == stateGreeted {
		return s.sendResponse(503, "Please send EHLO first")
	}
	if s.state != stateReady {
		return s.sendResponse(503, "Sender already specified")
	}

	if !strings.HasPrefix(strings.ToUpper(args), "FROM:") {
		return s.sendResponse(501, "Syntax: MAIL FROM:<address>")
	}

	addr, ok := extractAddress(args)
	if !ok {
		return s.sendResponse(501, "Invalid sender address")
	}

	s.mailFrom = addr
	s.state = stateHaveSender
	return s.sendResponse(250, "Sender OK")
}

func (s *Session) handleRCPT(args string) error {
	if s.state != stateHaveSender && s.state != stateHaveRecipients {
		return s.sendResponse(503, "Please send MAIL FROM first")
	}

	if !strings.HasPrefix(strings.ToUpper(args), "TO:") {
		return s.sendResponse(501, "Syntax: RCPT TO:<address>")
	}

	addr, ok := extractAddress(args)
	if !ok {
		return s.sendResponse(501, "Invalid recipient address")
	}

	s.recipients = append(s.recipients, addr)
	s.state = stateHaveRecipients
	return s.sendResponse(250, "Recipient OK")
}

func (s *Session) handleDATA() error {
	if s.state != stateHaveRecipients {
		return s.sendResponse(503, "Please send MAIL FROM and RCPT TO first")
	}

	if err := s.sendResponse(354, "Start mail input; end with <CRLF>.<CRLF>"); err != nil {
		return err
	}

	data, tooLarge, err := s.readData()
	if err != nil {
		return err
	}
	if tooLarge {
		s.resetTransaction()
		s.state = stateReady
		return s.sendResponse(552, "Message exceeds maximum size")
	}

	msg := message.ParseIncoming(s.mailFrom, s.recipients, data)

	// Reply before the handoff: acceptance must not block on downstream
	// processing.
	if err := s.sendResponse(250, "OK message accepted"); err != nil {
		return err
	}
	go s.store.ReceiveIncoming(msg)

	s.resetTransaction()
	s.state = stateReady
	return nil
}

// readData accumulates the DATA body until the lone-dot terminator and
// removes dot-stuffing. Both CRLF and bare-LF line endings are accepted.
func (s *Session) readData() (string, bool, error) {
	var b strings.Builder
	tooLarge := false

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return "", false, fmt.Errorf("read error in DATA: %w", err)
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}

		// Undo dot-stuffing
		if strings.HasPrefix(trimmed, "..") {
			trimmed = trimmed[1:]
		}

		// Count the pending line too, or the body could run over by a line
		if int64(b.Len()+len(trimmed)+2) > s.maxSize {
			tooLarge = true
			continue
		}
		b.WriteString(trimmed)
		b.WriteString("\r\n")
	}

	return b.String(), tooLarge, nil
}

func (s *Session) handleAUTH(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return s.sendResponse(501, "Syntax: AUTH mechanism")
	}

	// Localhost trust model: every AUTH exchange succeeds
	switch strings.ToUpper(fields[0]) {
	case "PLAIN":
		if len(fields) > 1 {
			return s.sendResponse(235, "Authentication successful")
		}
		s.auth = authAwaitInitial
		return s.sendRawResponse("334 ")
	case "LOGIN":
		s.auth = authAwaitUsername
		// "Username:" / "Password:" prompts, base64 per RFC 4954
		return s.sendRawResponse("334 VXNlcm5hbWU6")
	default:
		return s.sendResponse(504, "Unrecognized authentication type")
	}
}

func (s *Session) handleAuthStep(line string) error {
	switch s.auth {
	case authAwaitInitial:
		s.auth = authNone
		return s.sendResponse(235, "Authentication successful")
	case authAwaitUsername:
		s.auth = authAwaitPassword
		return s.sendRawResponse("334 UGFzc3dvcmQ6")
	case authAwaitPassword:
		s.auth = authNone
		return s.sendResponse(235, "Authentication successful")
	}
	return nil
}

func (s *Session) resetTransaction() {
	s.mailFrom = ""
	s.recipients = nil
	s.auth = authNone
}

// extractAddress pulls the address out of MAIL FROM / RCPT TO arguments:
// the text between angle brackets when present, otherwise the first token
// after the colon.
func extractAddress(args string) (string, bool) {
	if start := strings.Index(args, "<"); start != -1 {
		end := strings.Index(args[start:], ">")
		if end == -1 {
			return "", false
		}
		addr := strings.TrimSpace(args[start+1 : start+end])
		if addr == "" {
			return "", false
		}
		return addr, true
	}

	colon := strings.Index(args, ":")
	if colon == -1 {
		return "", false
	}

	fields := strings.Fields(args[colon+1:])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func (s *Session) sendResponse(code int, format string, args ...interface{}) error {
	return s.sendRawResponse(fmt.Sprintf("%d %s", code, fmt.Sprintf(format, args...)))
}

func (s *Session) sendRawResponse(response string) error {
	if !strings.HasSuffix(response, "\r\n") {
		response += "\r\n"
	}

	log.Printf("SMTP S: %s", strings.TrimSpace(response))

	if _, err := s.writer.WriteString(response); err != nil {
		return err
	}
	return s.writer.Flush()
}
