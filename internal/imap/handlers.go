package imap

import (
	"fmt"
)

func handleCapability(c *conn, tag string) {
	c.Send("* CAPABILITY IMAP4rev1 IDLE AUTH=PLAIN")
	c.Send(fmt.Sprintf("%s OK CAPABILITY completed", tag))
}

// Localhost trust model: any username/password pair is accepted
func handleLogin(c *conn, tag string, state *clientState) {
	state.authenticated = true
	c.Send(fmt.Sprintf("%s OK LOGIN completed", tag))
}

// The gateway serves exactly one mailbox
func handleList(c *conn, tag, cmd string, state *clientState) {
	if !state.authenticated {
		c.Send(fmt.Sprintf("%s NO Please authenticate first", tag))
		return
	}

	c.Send(fmt.Sprintf(`* %s (\HasNoChildren) "/" "INBOX"`, cmd))
	c.Send(fmt.Sprintf("%s OK %s completed", tag, cmd))
}

func handleNoop(s *Server, c *conn, tag string, state *clientState) {
	if state.selected {
		count := s.store.MessageCount()
		if count != state.lastCount {
			c.Send(fmt.Sprintf("* %d EXISTS", count))
			state.lastCount = count
		}
	}
	c.Send(fmt.Sprintf("%s OK NOOP completed", tag))
}

func handleCheck(c *conn, tag string, state *clientState) {
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}
	c.Send(fmt.Sprintf("%s OK CHECK completed", tag))
}

func handleExpunge(s *Server, c *conn, tag string, state *clientState) {
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}
	if state.readOnly {
		c.Send(fmt.Sprintf("%s NO Mailbox is read-only", tag))
		return
	}

	// The store reports original sequence numbers; each line accounts for
	// the shift the previous removals caused on the client side.
	for _, seq := range s.store.Expunge() {
		c.Send(fmt.Sprintf("* %d EXPUNGE", seq))
	}
	state.lastCount = s.store.MessageCount()
	c.Send(fmt.Sprintf("%s OK EXPUNGE completed", tag))
}

func handleClose(s *Server, c *conn, tag string, state *clientState) {
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}

	// CLOSE expunges silently when the mailbox is writable
	if !state.readOnly {
		s.store.Expunge()
	}

	state.selected = false
	state.selectedMailbox = ""
	state.readOnly = false
	c.Send(fmt.Sprintf("%s OK CLOSE completed", tag))
}

func handleLogout(s *Server, c *conn, tag string, state *clientState) {
	if state.idleListenerID != "" {
		s.store.RemoveReplyListener(state.idleListenerID)
		state.idleListenerID = ""
	}

	c.Send("* BYE mailgate terminating connection")
	c.Send(fmt.Sprintf("%s OK LOGOUT completed", tag))
}
