package imap

import (
	"fmt"
)

// handleIdle registers a reply listener that pushes untagged EXISTS lines to
// this connection whenever a reply is stored. The command loop keeps
// reading; DONE is recognized there and routed to handleIdleDone with the
// tag captured here.
func handleIdle(s *Server, c *conn, tag string, state *clientState) {
	if !state.authenticated {
		c.Send(fmt.Sprintf("%s NO Please authenticate first", tag))
		return
	}
	if !state.selected {
		c.Send(fmt.Sprintf("%s NO No mailbox selected", tag))
		return
	}
	if state.idling() {
		c.Send(fmt.Sprintf("%s BAD Already idling", tag))
		return
	}

	state.idleTag = tag
	state.idleListenerID = s.store.AddReplyListener(func(total int) {
		c.Send(fmt.Sprintf("* %d EXISTS", total))
	})

	c.Send("+ idling")
}

// handleIdleDone ends the IDLE: deregisters the listener and completes the
// command under the tag that began it.
func handleIdleDone(s *Server, c *conn, state *clientState) {
	s.store.RemoveReplyListener(state.idleListenerID)
	state.idleListenerID = ""

	c.Send(fmt.Sprintf("%s OK IDLE terminated", state.idleTag))
	state.idleTag = ""
}
