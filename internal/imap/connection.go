package imap

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// idleDeadline bounds how long a connection may sit in IDLE (or between
// commands) before the server hangs up, per RFC 3501's ~30 minute guidance.
const idleDeadline = 29 * time.Minute

func handleClient(s *Server, c *conn, state *clientState) {
	for {
		c.netConn.SetReadDeadline(time.Now().Add(idleDeadline))

		line, err := c.ReadLine()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				c.Send("* BYE autologout, idle for too long")
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// While idling, DONE is recognized before tag/command parsing
		if state.idling() && strings.EqualFold(line, "DONE") {
			handleIdleDone(s, c, state)
			continue
		}

		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 {
			c.Send("* BAD Invalid command format")
			continue
		}

		tag := parts[0]
		cmd := strings.ToUpper(parts[1])
		args := ""
		if len(parts) > 2 {
			args = parts[2]
		}

		switch cmd {
		case "CAPABILITY":
			handleCapability(c, tag)
		case "LOGIN":
			handleLogin(c, tag, state)
		case "LIST", "LSUB":
			handleList(c, tag, cmd, state)
		case "SELECT", "EXAMINE":
			handleSelect(s, c, tag, cmd, args, state)
		case "FETCH":
			handleFetch(s, c, tag, args, state, false)
		case "SEARCH":
			handleSearch(s, c, tag, args, state, false)
		case "STORE":
			handleStoreFlags(s, c, tag, args, state, false)
		case "UID":
			handleUID(s, c, tag, args, state)
		case "EXPUNGE":
			handleExpunge(s, c, tag, state)
		case "NOOP":
			handleNoop(s, c, tag, state)
		case "CHECK":
			handleCheck(c, tag, state)
		case "CLOSE":
			handleClose(s, c, tag, state)
		case "IDLE":
			handleIdle(s, c, tag, state)
		case "LOGOUT":
			handleLogout(s, c, tag, state)
			return
		default:
			c.Send(fmt.Sprintf("%s BAD Unknown command: %s", tag, cmd))
		}
	}
}

// handleUID dispatches the UID variants of FETCH, SEARCH and STORE
func handleUID(s *Server, c *conn, tag, args string, state *clientState) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		c.Send(fmt.Sprintf("%s BAD UID requires a command", tag))
		return
	}

	sub := strings.ToUpper(parts[0])
	rest := parts[1]

	switch sub {
	case "FETCH":
		handleFetch(s, c, tag, rest, state, true)
	case "SEARCH":
		handleSearch(s, c, tag, rest, state, true)
	case "STORE":
		handleStoreFlags(s, c, tag, rest, state, true)
	default:
		c.Send(fmt.Sprintf("%s BAD Unknown UID command: %s", tag, sub))
	}
}
